package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/pkg/auth"
	"github.com/jevencare/api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokens() auth.JWTService {
	return auth.NewJWTService(auth.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "test",
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func protectedRouter(jwt auth.JWTService, roles ...model.Role) *gin.Engine {
	m := NewAuthMiddleware(jwt)
	r := gin.New()
	r.GET("/me", m.Authenticate(), m.RequireRole(roles...), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"role": id.Role, "userId": id.UserID})
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	jwt := tokens()
	r := protectedRouter(jwt, model.RolePatient, model.RoleDoctor)
	id := auth.Identity{UserID: uuid.New(), Phone: "9876543210", Role: "patient"}

	access, err := jwt.GenerateAccessToken(id)
	require.NoError(t, err)
	refresh, err := jwt.GenerateRefreshToken(id)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Not authorized. No token provided."},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Not authorized. No token provided."},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "Not authorized. Token missing."},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Not authorized. Invalid token."},
		{"refresh token as access", "Bearer " + refresh, http.StatusUnauthorized, "Not authorized. Invalid token."},
		{"valid", "Bearer " + access, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				resp := decode(t, w)
				assert.False(t, resp.Success)
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwt := tokens()
	r := protectedRouter(jwt, model.RoleDoctor)

	access, err := jwt.GenerateAccessToken(auth.Identity{UserID: uuid.New(), Phone: "9876543210", Role: "pharmacy"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Role 'pharmacy' is not authorized to access this resource", decode(t, w).Message)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2}, time.Minute)
	r := gin.New()
	r.POST("/otp", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/otp", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, rateLimitMessage, decode(t, w).Message)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "bad id with spaces")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get(HeaderXRequestID))
	assert.NoError(t, err)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/", BodyLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPhoneValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req model.SendOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post(`{"phone":"9876543210"}`).Code)

	w := post(`{"phone":"98765"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"phone"`)
}

func TestPublicCache(t *testing.T) {
	r := gin.New()
	r.Use(PublicCache(time.Minute))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.GET("/missing", func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=60", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
