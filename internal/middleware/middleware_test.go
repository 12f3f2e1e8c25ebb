package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver map[string]*auth.Viewer

func (f fakeResolver) ViewerFromToken(_ context.Context, token string) (*auth.Viewer, error) {
	if v, ok := f[token]; ok {
		return v, nil
	}
	if token == "expired" {
		return nil, errs.ErrTokenExpired
	}
	return nil, errs.ErrUnauthenticated
}

func whoami(c *gin.Context) {
	v := auth.FromContext(c.Request.Context())
	if v == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, string(v.Role)+"|"+auth.ClientIP(c.Request.Context()))
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/", whoami)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthOptional(t *testing.T) {
	resolver := fakeResolver{"good": {UserID: models.NewID(), Role: models.RoleManager}}
	r := newRouter(AuthOptional(resolver))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manager|203.0.113.7", w.Body.String())

	w = do(r, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHENTICATED"`)

	w = do(r, "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"TOKEN_EXPIRED"`)

	w = do(r, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthAndStaff(t *testing.T) {
	resolver := fakeResolver{
		"staff":    {UserID: models.NewID(), Role: models.RoleAdmin},
		"customer": {UserID: models.NewID(), Role: models.RoleCustomer},
	}

	authed := newRouter(AuthOptional(resolver), RequireAuth())
	assert.Equal(t, http.StatusUnauthorized, do(authed, "").Code)
	assert.Equal(t, http.StatusOK, do(authed, "Bearer customer").Code)

	staff := newRouter(AuthOptional(resolver), RequireStaff())
	assert.Equal(t, http.StatusForbidden, do(staff, "Bearer customer").Code)
	assert.Equal(t, http.StatusOK, do(staff, "Bearer staff").Code)
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(cache.NewMemoryCounter(), 2))

	first := do(r, "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(r, "").Code)

	blocked := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
}

type brokenCounter struct{}

func (brokenCounter) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newRouter(RateLimit(brokenCounter{}, 1))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, "").Code)
	}
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := newRouter(Logger())

	w := do(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
