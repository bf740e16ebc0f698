package middleware

import (
	"net/http"
	"strings"

	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

const ContextUserIDKey = "user_id"

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": pkg.CodeUnauthorized, "msg": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": pkg.CodeUnauthorized, "msg": "invalid authorization format"})
			c.Abort()
			return
		}

		tokenStr := parts[1]
		userRep := &redis.UserRepository{}

		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": pkg.CodeUnauthorized, "msg": "invalid or expired token"})
			c.Abort()
			return
		}

		// redis校验是否是当前有效token
		originToken, err := userRep.GetUserToken(claims.UserID)
		if err != nil || originToken != tokenStr {
			c.JSON(http.StatusUnauthorized, gin.H{"code": pkg.CodeUnauthorized, "msg": "account has been logged in elsewhere"})
			c.Abort()
			return
		}

		// 校验通过后续期
		if err = userRep.ExtendUserToken(claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": pkg.CodeStoreUnavailable, "msg": "token extend failed"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
