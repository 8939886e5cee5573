package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
)

type authString string

// tokenIsLive reports whether the session a bearer token was issued for is
// still in the user's Tokens set. Logout removes it from there.
var tokenIsLive = func(username, tokenId string) (bool, error) {
	return config.IsRedisSetMember("Tokens:"+username, tokenId)
}

func rejectBearer(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	c.Abort()
}

// AuthMiddleware accepts a bearer access token for API clients that do not
// hold a session. The claim's username is used when no session resolved one.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.Next()
			return
		}

		validate, err := utils.JwtValidate(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || !validate.Valid {
			rejectBearer(c)
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || customClaim.Username == "" || customClaim.Id == "" {
			rejectBearer(c)
			return
		}
		live, err := tokenIsLive(customClaim.Username, customClaim.Id)
		if err != nil {
			config.LogError(config.GetLogger(), "authMiddleware.go", "AuthMiddleware", "tokenIsLive", customClaim.Username, err)
		}
		if !live {
			rejectBearer(c)
			return
		}

		ctx := context.WithValue(c.Request.Context(), authString("auth"), customClaim)
		if _, ok := utils.GetUsernameFromContext(ctx); !ok {
			ctx = utils.SetUsernameInContext(ctx, customClaim.Username)
			ctx = utils.SetTokenInContext(ctx, customClaim.Id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}
