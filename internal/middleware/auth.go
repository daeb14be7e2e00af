package middleware

import (
	"context"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserLookup interface {
	Exists(ctx context.Context, userID uint) (bool, error)
}

// AuthMiddleware 校验 Bearer 令牌；WebSocket 握手无法带请求头，允许使用 ?token=。
// 令牌有效但账号已注销时同样返回 401
func AuthMiddleware(cfg *config.Config, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.String("path", c.FullPath()), zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		exists, err := users.Exists(c.Request.Context(), claims.UserID)
		if err != nil {
			util.HandleError(c, util.ClassifyError(err))
			c.Abort()
			return
		}
		if !exists {
			logger.Log.Debug("JWT for deleted user", zap.Uint("userId", claims.UserID))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// RoleMiddleware 管理员拥有所有角色的权限
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := user.Role == model.Admin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error
}

// ActivityMiddleware 记录用户最后活跃时间，同一用户 interval 内只写一次
func ActivityMiddleware(repo UserActivityRepo, interval time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	seen := make(map[uint]time.Time)

	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			now := time.Now()
			mu.Lock()
			last, ok := seen[claims.UserID]
			due := !ok || now.Sub(last) >= interval
			if due {
				seen[claims.UserID] = now
			}
			mu.Unlock()

			if due {
				// 异步更新，不阻塞主流程
				go func(userID uint) {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := repo.UpdateLastSeen(ctx, userID, now); err != nil {
						logger.Log.Warn("Failed to record activity", zap.Uint("userId", userID), zap.Error(err))
					}
				}(claims.UserID)
			}
		}
		c.Next()
	}
}
