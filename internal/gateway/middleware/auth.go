package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-system/internal/authz"
	"clinic-system/internal/utils"
)

const ActorKey = "actor"

// JWTAuth requires a valid bearer token and stores the caller as an
// authz.Actor under ActorKey.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Missing or malformed authorization header",
			})
			return
		}

		claims, err := utils.ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(ActorKey, authz.Actor{
			ID:       claims.UserId,
			Username: claims.Username,
			Role:     claims.Role,
		})
		c.Next()
	}
}

// RequirePermission must run after JWTAuth.
func RequirePermission(authorizer authz.Authorizer, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !authorizer.IsAuthorized(actor, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Not allowed to " + action,
			})
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
