package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"satistrain_backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	uploads := filepath.Join(dir, "uploads")
	write := func(port string) {
		body := "server:\n  port: \"" + port + "\"\nstorage:\n  type: local\n  local_path: " + uploads + "\n"
		require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
	}
	write("8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, dir, func(cfg *config.Config) { reloaded <- cfg })
	}()

	// 等待 watcher 注册完成
	time.Sleep(200 * time.Millisecond)
	write("9191")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "9191", cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
