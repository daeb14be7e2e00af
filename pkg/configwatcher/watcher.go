package configwatcher

import (
	"context"
	"path/filepath"
	"satistrain_backend/internal/config"
	"satistrain_backend/pkg/apiutil"
	"satistrain_backend/pkg/logger"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

// 编辑器保存时常触发多次写事件
const debounceWait = time.Second

// WatchConfig 监听配置目录，config.yaml 变化后重新加载并回调，ctx 结束时返回
func WatchConfig(ctx context.Context, configDir string, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return err
	}
	// 监听目录而不是文件，兼容先删后写的保存方式
	if err := watcher.Add(absDir); err != nil {
		return err
	}

	reload := apiutil.NewDebouncer(debounceWait, func() {
		newCfg, err := config.LoadConfig(absDir)
		if err != nil {
			logger.Log.Error("Failed to reload config", zap.Error(err))
			return
		}
		logger.Log.Info("Config reloaded", zap.String("dir", absDir))
		reloader(newCfg)
	})
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
