package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"carpool/internal/core/auth"
	"carpool/internal/domain"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) Authenticate(_ context.Context, username, password string) (*domain.User, error) {
	u, ok := f[username]
	if !ok || password != "pw" || !u.IsActive() {
		return nil, domain.ErrAuthenticationFailure
	}
	return u, nil
}

func (f fakeUsers) Principal(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f {
		if u.ID == id && u.IsActive() {
			return u, nil
		}
	}
	return nil, domain.ErrAuthenticationFailure
}

func newJWTer() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("k"), Issuer: "carpool", TTL: time.Hour}
}

func authEngine(t *testing.T, users fakeUsers, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{Authenticate(newJWTer(), users, zaptest.NewLogger(t))}, extra...)
	chain = append(chain, func(c *gin.Context) {
		u, _ := auth.UserFrom(c.Request.Context())
		c.String(http.StatusOK, u.ID+"/"+c.GetString("userId"))
	})
	r.GET("/me", chain...)
	return r
}

func get(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	users := fakeUsers{
		"ana":  {ID: "u1", Username: "ana", Role: domain.RoleUser, Status: domain.UserActive},
		"boby": {ID: "u2", Username: "boby", Role: domain.RoleUser, Status: domain.UserBlocked},
	}
	r := authEngine(t, users)

	w := get(r, "ana pw")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1/u1", w.Body.String())

	tok, err := newJWTer().Issue("u1", "USER")
	require.NoError(t, err)
	w = get(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, h := range []string{"", "ana wrong", "boby pw", "Bearer garbage", "just-one-token", "a b c"} {
		assert.Equal(t, http.StatusUnauthorized, get(r, h).Code, h)
	}

	blocked, err := newJWTer().Issue("u2", "USER")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+blocked).Code)
}

func TestRequireRole(t *testing.T) {
	users := fakeUsers{
		"ana":  {ID: "u1", Username: "ana", Role: domain.RoleUser, Status: domain.UserActive},
		"root": {ID: "a1", Username: "root", Role: domain.RoleAdmin, Status: domain.UserActive},
	}
	r := authEngine(t, users, RequireRole(domain.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, get(r, "ana pw").Code)
	assert.Equal(t, http.StatusOK, get(r, "root pw").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, time.Minute))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRecoveryAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zaptest.NewLogger(t)))
	r.GET("/me", func(c *gin.Context) { panic("boom") })

	w := get(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestConcurrencyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	release := make(chan struct{})
	entered := make(chan struct{})
	r.Use(ConcurrencyLimit(1, 20*time.Millisecond))
	r.GET("/me", func(c *gin.Context) {
		if c.Query("hold") != "" {
			close(entered)
			<-release
		}
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/me?hold=1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		done <- w.Code
	}()
	<-entered

	w := get(r, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestMaxBodyBytes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(b))
	})

	post := func(body string, chunked bool) int {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		if chunked {
			req.ContentLength = -1
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, post("small", false))
	assert.Equal(t, http.StatusBadRequest, post("way too large", false), "declared length")
	assert.Equal(t, http.StatusRequestEntityTooLarge, post("way too large", true), "undeclared length")
}

func TestRequestIDSanitized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c.Request.Context())) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(KeyRequestID, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotContains(t, w.Body.String(), "bad id")
	assert.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())
}
