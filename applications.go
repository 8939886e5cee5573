package main

import (
	"net/http"

	"github.com/dpcompass/compass_backend/models"
	"github.com/gin-gonic/gin"
)

type applicationFormOptions struct {
	ApplicationTypes []models.ApplicationType `json:"application_types"`
	Environments     []models.Environment     `json:"environments"`
	Owners           []*models.User           `json:"owners,omitempty"`
}

func newApplicationFormOptions(c *gin.Context, user *models.User) (*applicationFormOptions, error) {
	options := applicationFormOptions{
		ApplicationTypes: models.ApplicationTypes,
		Environments:     models.Environments,
	}
	if !user.IsDeveloper() {
		owners, err := models.ListUsersByRole(c.Request.Context(), models.UserRoleDeveloper)
		if err != nil {
			return nil, err
		}
		options.Owners = owners
	}
	return &options, nil
}

func listApplicationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		applications, err := models.ListApplications(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, "listApplicationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"applications": applications})
	}
}

func applicationFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if _, err := models.Authorize(user, models.EntityApplication, models.ActionCreate); err != nil {
			respondError(c, "applicationFormHandler", err)
			return
		}
		options, err := newApplicationFormOptions(c, user)
		if err != nil {
			respondError(c, "applicationFormHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"options": options})
	}
}

func createApplicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewApplication
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		application, err := models.CreateApplication(c.Request.Context(), currentUser(c), &input)
		if err != nil {
			respondError(c, "createApplicationHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"application": application,
			"message":     "Application " + application.Name + " registered successfully.",
		})
	}
}

func applicationDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		detail, err := models.GetApplicationDetail(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "applicationDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func editApplicationFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		user := currentUser(c)
		if _, err := models.Authorize(user, models.EntityApplication, models.ActionEdit); err != nil {
			respondError(c, "editApplicationFormHandler", err)
			return
		}
		application, err := models.GetApplication(c.Request.Context(), user, id)
		if err != nil {
			respondError(c, "editApplicationFormHandler", err)
			return
		}
		options, err := newApplicationFormOptions(c, user)
		if err != nil {
			respondError(c, "editApplicationFormHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"application": application, "options": options})
	}
}

func updateApplicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewApplication
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		application, err := models.UpdateApplication(c.Request.Context(), currentUser(c), id, &input)
		if err != nil {
			respondError(c, "updateApplicationHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"application": application,
			"message":     "Application " + application.Name + " updated successfully.",
		})
	}
}
