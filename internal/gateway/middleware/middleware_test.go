package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-system/internal/authz"
	"clinic-system/internal/utils"
)

var secret = []byte("gateway-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, _, err := utils.GenerateToken(secret, 3, "sari", role, time.Hour)
	require.NoError(t, err)
	return s
}

func protectedRouter(action string) *gin.Engine {
	r := gin.New()
	r.GET("/x",
		JWTAuth(secret),
		RequirePermission(authz.DefaultPolicy(), action),
		func(c *gin.Context) {
			actor, _ := ActorFrom(c)
			c.JSON(http.StatusOK, gin.H{"username": actor.Username})
		},
	)
	return r
}

func TestJWTAuthAndPermission(t *testing.T) {
	tests := []struct {
		name   string
		header string
		action string
		want   int
	}{
		{"no header", "", authz.ActionReportsRead, http.StatusUnauthorized},
		{"not bearer", "Basic abc", authz.ActionReportsRead, http.StatusUnauthorized},
		{"bad token", "Bearer nope", authz.ActionReportsRead, http.StatusUnauthorized},
		{"role lacks action", "Bearer " + token(t, authz.RoleBilling), authz.ActionDayCloseSubmit, http.StatusForbidden},
		{"role grants action", "Bearer " + token(t, authz.RoleFrontDesk), authz.ActionDayCloseSubmit, http.StatusOK},
		{"admin wildcard", "Bearer " + token(t, authz.RoleAdmin), authz.ActionBillingRead, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protectedRouter(tt.action).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"username":"sari"`)
			}
		})
	}
}

func TestRequirePermission_WithoutActor(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(authz.DefaultPolicy(), authz.ActionReportsRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	_, err := RateLimit("lots")
	require.Error(t, err)

	limit, err := RateLimit("2-M")
	require.NoError(t, err)

	calls := 0
	r := gin.New()
	r.Use(limit)
	r.GET("/x", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://clinic.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
