package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/audits/3/", safeNext("/audits/3/"))
	assert.Equal(t, "/dashboard/", safeNext(""))
	assert.Equal(t, "/dashboard/", safeNext("https://evil.example/"))
	assert.Equal(t, "/dashboard/", safeNext("//evil.example/"))
	assert.Equal(t, "/dashboard/", safeNext("/\\evil.example"))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim("  "))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a, ,http://b "))
}

func errorResponse(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, "test", err)
	return w
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("get audit: %w", utils.ErrorRecordNotFound), http.StatusNotFound},
		{"transition", &models.TransitionError{Entity: "audit", From: "completed", To: "in_progress"}, http.StatusUnprocessableEntity},
		{"duplicate response", models.ErrDuplicateResponse, http.StatusUnprocessableEntity},
		{"incomplete audit", models.ErrAuditNotCompleted, http.StatusUnprocessableEntity},
		{"validation", &models.ValidationError{Field: "due_date", Message: "must be in the future"}, http.StatusUnprocessableEntity},
		{"duplicate column", &utils.DuplicateError{Column: "username"}, http.StatusUnprocessableEntity},
		{"credentials", models.ErrInvalidCredentials, http.StatusUnauthorized},
		{"disabled", models.ErrUserDisabled, http.StatusUnauthorized},
		{"report lock held", fmt.Errorf("generate report: %w", utils.ErrorLockNotObtained), http.StatusConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, errorResponse(tc.err).Code)
		})
	}
}

func TestRespondErrorAccessDenied(t *testing.T) {
	w := errorResponse(&models.AccessDeniedError{Message: "Only administrators can approve reports.", Redirect: "/reports/4/"})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/reports/4/", w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "Only administrators can approve reports.")
}

func TestRespondErrorLockBusyKeepsMessage(t *testing.T) {
	w := errorResponse(utils.ErrorLockNotObtained)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "resource is busy, try again")
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	w := errorResponse(errors.New("dial tcp 10.0.0.3:3306: refused"))
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestPathId(t *testing.T) {
	r := gin.New()
	r.GET("/audits/:id/", func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, code := range map[string]int{"/audits/12/": http.StatusOK, "/audits/abc/": http.StatusNotFound, "/audits/0/": http.StatusNotFound} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

func TestReadinessGate(t *testing.T) {
	r := gin.New()
	r.Use(readinessGate())
	r.GET("/dashboard/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
