package middlewares

import (
	"net/http"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session_token"

// SessionMiddleware resolves the session token from the "token" header or the
// session cookie. A bad header token is rejected; a stale cookie is dropped.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		fromCookie := false
		if token == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
				token = cookie
				fromCookie = true
			}
		}
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			if fromCookie {
				c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
