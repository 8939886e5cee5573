package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoginRequiredRedirectsAnonymous(t *testing.T) {
	r := gin.New()
	r.GET("/audits/", LoginRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audits/?status=pending", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login/?next=%2Faudits%2F%3Fstatus%3Dpending", w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestCurrentUserMissing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}

func TestRequestContextCorrelationId(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/ping", func(c *gin.Context) {
		seen, _ = utils.GetCorrelationIdFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("x-correlation-id", "cid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "cid-123", seen)
	assert.Equal(t, "cid-123", w.Header().Get("x-correlation-id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("x-correlation-id"))
}

func withLiveTokens(t *testing.T, live map[string]string) {
	t.Helper()
	previous := tokenIsLive
	tokenIsLive = func(username, tokenId string) (bool, error) {
		return live[tokenId] == username, nil
	}
	t.Cleanup(func() { tokenIsLive = previous })
}

func bearerRouter(username *string, claim **utils.JwtCustomClaim) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		*username, _ = utils.GetUsernameFromContext(c.Request.Context())
		*claim = CtxValue(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func getWithBearer(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareBearer(t *testing.T) {
	t.Setenv("API_SECRET", "unit-test-secret")
	withLiveTokens(t, map[string]string{"session-5": "ravi"})

	var username string
	var claim *utils.JwtCustomClaim
	r := bearerRouter(&username, &claim)

	token, err := utils.JwtGenerate(5, "ravi", "developer", "session-5", time.Minute)
	require.NoError(t, err)
	w := getWithBearer(r, token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ravi", username)
	require.NotNil(t, claim)
	assert.Equal(t, 5, claim.ID)

	w = getWithBearer(r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	t.Setenv("API_SECRET", "unit-test-secret")
	live := map[string]string{"session-5": "ravi"}
	withLiveTokens(t, live)

	var username string
	var claim *utils.JwtCustomClaim
	r := bearerRouter(&username, &claim)

	token, err := utils.JwtGenerate(5, "ravi", "developer", "session-5", time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getWithBearer(r, token).Code)

	delete(live, "session-5")
	username = ""
	w := getWithBearer(r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, username)

	// a token naming another user's live session is not accepted either
	live["session-5"] = "ravi"
	other, err := utils.JwtGenerate(1, "admin", "admin", "session-5", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, getWithBearer(r, other).Code)
}

func TestAuthMiddlewareRejectsTokenWithoutSecret(t *testing.T) {
	t.Setenv("API_SECRET", "")
	withLiveTokens(t, map[string]string{"session-1": "admin"})

	var username string
	var claim *utils.JwtCustomClaim
	r := bearerRouter(&username, &claim)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &utils.JwtCustomClaim{
		ID:             1,
		Username:       "admin",
		Role:           "admin",
		StandardClaims: jwt.StandardClaims{Id: "session-1"},
	})
	signed, err := forged.SignedString([]byte("dp-compass-secret"))
	require.NoError(t, err)

	w := getWithBearer(r, signed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, username)
	assert.Nil(t, claim)
}
