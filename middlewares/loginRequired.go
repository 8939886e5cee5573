package middlewares

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userKey = "user"

func redirectToLogin(c *gin.Context) {
	location := "/login/?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Header("Location", location)
	c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{
		"error":    "authentication required",
		"redirect": location,
	})
}

// LoginRequired loads the signed-in user and stores it on the gin context.
// Anonymous or disabled users are sent to the login page.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || username == "" {
			redirectToLogin(c)
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			if !errors.Is(err, utils.ErrorRecordNotFound) {
				config.LogError(config.GetLogger(), "loginRequired.go", "LoginRequired", "GetUserByUsername", username, err)
			}
			redirectToLogin(c)
			return
		}
		if user.IsActive == nil || !*user.IsActive {
			redirectToLogin(c)
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.FullName())
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by LoginRequired, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequestContext attaches the correlation id and client ip to the request context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		ctx = utils.SetClientIPInContext(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header("x-correlation-id", cid)
		c.Next()
	}
}
