package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
)

// unprocessable lists the errors that mean the submitted input was rejected.
var unprocessable = []error{
	models.ErrInvalidTransition,
	models.ErrDuplicateResponse,
	models.ErrAuditNotCompleted,
	models.ErrAuditOnHold,
	models.ErrChecklistCodeInUse,
}

// respondError maps a domain error to its HTTP response.
func respondError(c *gin.Context, funcName string, err error) {
	var denied *models.AccessDeniedError
	if errors.As(err, &denied) {
		if denied.Redirect != "" {
			c.Header("Location", denied.Redirect)
		}
		c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{"error": denied.Message, "redirect": denied.Redirect})
		return
	}

	if fields := utils.ProcessValidationErrors(err); fields != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid input", "fields": fields})
		return
	}
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		resp := gin.H{"error": validation.Error()}
		if validation.Field != "" {
			resp["fields"] = map[string]string{validation.Field: validation.Message}
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp)
		return
	}
	var duplicate *utils.DuplicateError
	if errors.As(err, &duplicate) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":  duplicate.Error(),
			"fields": map[string]string{duplicate.Column: "unique"},
		})
		return
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrorLockNotObtained):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUserDisabled):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), "handlers", funcName, c.Request.Method+" "+c.FullPath(), nil, err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindError reports a request body that could not be decoded or failed binding rules.
func bindError(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); fields != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid input", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// pathId reads a positive integer route parameter. A malformed id is reported as not found.
func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

// currentUser is only nil on routes outside the login guard.
func currentUser(c *gin.Context) *models.User {
	return middlewares.CurrentUser(c)
}
