package main

import (
	"net/http"
	"strings"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// safeNext only follows local paths after login.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/dashboard/"
}

func homeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, ok := utils.GetUsernameFromContext(c.Request.Context()); ok && username != "" {
			c.Redirect(http.StatusSeeOther, "/dashboard/")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":        "DP Compass",
			"description": "Digital Personal Data Protection compliance tracking",
			"login":       "/login/",
			"register":    "/register/",
		})
	}
}

func loginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, ok := utils.GetUsernameFromContext(c.Request.Context()); ok && username != "" {
			c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
			return
		}
		c.JSON(http.StatusOK, gin.H{"next": safeNext(c.Query("next"))})
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		info, err := models.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			respondError(c, "loginHandler", err)
			return
		}
		settings := config.GetSettings()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middlewares.SessionCookie, info.Token, int(settings.SessionLifespan.Seconds()), "/", "", settings.IsProduction(), true)
		c.JSON(http.StatusOK, gin.H{
			"user":     info,
			"redirect": safeNext(c.Query("next")),
		})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.Logout(c.Request.Context(), currentUser(c)); err != nil {
			respondError(c, "logoutHandler", err)
			return
		}
		c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "You have been logged out.", "redirect": "/login/"})
	}
}

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		user, err := models.RegisterUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "registerHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"user":     user,
			"message":  "Registration successful. Please log in.",
			"redirect": "/login/",
		})
	}
}

func profileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		activities, err := models.ListActivities(c.Request.Context(), user, 10)
		if err != nil {
			respondError(c, "profileHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "role_label": user.Role.Label(), "activities": activities})
	}
}

func updateProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.ProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		user, err := models.UpdateProfile(c.Request.Context(), currentUser(c), &input)
		if err != nil {
			respondError(c, "updateProfileHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "message": "Profile updated successfully."})
	}
}

func listUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := models.ListUsers(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, "listUsersHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		dashboard, err := models.GetDashboard(c.Request.Context(), user)
		if err != nil {
			respondError(c, "dashboardHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":       user,
			"role_label": user.Role.Label(),
			"dashboard":  dashboard,
		})
	}
}
