package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour}}
}

func tokenFor(t *testing.T, id uint, role model.UserRole) string {
	t.Helper()
	user := &model.User{Email: "agent@example.com", Role: role}
	user.ID = id
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// liveUsers 列出的 ID 视为已注销，其余均存在
type liveUsers map[uint]bool

func (u liveUsers) Exists(ctx context.Context, userID uint) (bool, error) {
	return !u[userID], nil
}

type failingUsers struct{}

func (failingUsers) Exists(ctx context.Context, userID uint) (bool, error) {
	return false, errors.New("connection refused")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID})
	})
	r.GET("/protected", chain...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	router := newRouter(AuthMiddleware(testConfig(), liveUsers{}))
	valid := tokenFor(t, 7, model.Learner)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "bearer header", header: "Bearer " + valid, status: http.StatusOK},
		{name: "query token", query: "?token=" + valid, status: http.StatusOK},
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	user := &model.User{Email: "x@example.com", Role: model.Learner}
	user.ID = 1
	forged, err := util.GenerateJWT(user, "other-secret", time.Hour)
	require.NoError(t, err)

	router := newRouter(AuthMiddleware(testConfig(), liveUsers{}))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), string(util.KindAuthentication))
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	router := newRouter(AuthMiddleware(testConfig(), liveUsers{9: true}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, 9, model.Learner))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), string(util.KindAuthentication))
}

func TestAuthMiddleware_LookupFailure(t *testing.T) {
	router := newRouter(AuthMiddleware(testConfig(), failingUsers{}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, 4, model.Learner))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRoleMiddleware(t *testing.T) {
	router := newRouter(AuthMiddleware(testConfig(), liveUsers{}), RoleMiddleware(model.Trainer))

	tests := []struct {
		role   model.UserRole
		status int
	}{
		{model.Learner, http.StatusForbidden},
		{model.Trainer, http.StatusOK},
		{model.Admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, 3, tt.role))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

type fakeActivityRepo struct {
	mu    sync.Mutex
	calls map[uint]int
	seen  chan uint
}

func (f *fakeActivityRepo) UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error {
	f.mu.Lock()
	f.calls[userID]++
	f.mu.Unlock()
	f.seen <- userID
	return nil
}

func (f *fakeActivityRepo) count(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[userID]
}

func TestActivityMiddleware_ThrottlesPerUser(t *testing.T) {
	repo := &fakeActivityRepo{calls: map[uint]int{}, seen: make(chan uint, 10)}
	router := newRouter(AuthMiddleware(testConfig(), liveUsers{}), ActivityMiddleware(repo, time.Hour))

	do := func(id uint) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, id, model.Learner))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	do(1)
	do(1)
	do(2)

	got := map[uint]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-repo.seen:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("activity was not recorded")
		}
	}

	assert.True(t, got[1])
	assert.True(t, got[2])
	assert.Equal(t, 1, repo.count(1))
	assert.Equal(t, 1, repo.count(2))
}
