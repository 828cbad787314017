package middleware

import (
	"smartform_backend/internal/config"
	"smartform_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
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
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// UserActivityRepo 记录用户活跃时间
type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware 异步刷新用户最近活跃时间，不阻塞请求
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, exists := c.Get("user"); exists {
			if claims, ok := v.(*util.Claims); ok {
				go repo.UpdateLastSeen(claims.UserID)
			}
		}
		c.Next()
	}
}
