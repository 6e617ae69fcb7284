package ez

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/core/auth"
	"carpool/internal/domain"
	"carpool/internal/transport/http/validation"
)

type echoIn struct {
	Name string `json:"name" binding:"required,min=2"`
}

func engine(u *domain.User) (*gin.Engine, EZ) {
	gin.SetMode(gin.TestMode)
	validation.Setup()
	r := gin.New()
	if u != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
			c.Next()
		})
	}
	return r, New(&r.RouterGroup)
}

func serve(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestErrorMapping(t *testing.T) {
	r, e := engine(nil)
	errs := map[string]error{
		"/missing":  fmt.Errorf("travel x: %w", domain.ErrEntityNotFound),
		"/full":     domain.ErrVehicleIsFull,
		"/denied":   domain.ErrAuthorization,
		"/custom":   BadRequest("nope"),
		"/internal": fmt.Errorf("db down"),
	}
	for path, err := range errs {
		e.GET(path, func(*gin.Context) (any, error) { return nil, err })
	}

	cases := []struct {
		path   string
		status int
	}{
		{"/missing", http.StatusNotFound},
		{"/full", http.StatusBadRequest},
		{"/denied", http.StatusUnauthorized},
		{"/custom", http.StatusBadRequest},
		{"/internal", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w, body := serve(r, http.MethodGet, tc.path, "")
		assert.Equal(t, tc.status, w.Code, tc.path)
		assert.EqualValues(t, tc.status, body["code"], tc.path)
	}

	_, body := serve(r, http.MethodGet, "/internal", "")
	assert.NotContains(t, body["msg"], "db down", "internal details stay in the log")
}

func TestBodyBinding(t *testing.T) {
	r, e := engine(nil)
	POST(e, "/echo", func(_ *gin.Context, in echoIn) (any, error) { return gin.H{"name": in.Name}, nil })
	e.POSTNoBody("/ping", func(*gin.Context) (any, error) { return gin.H{"pong": true}, nil })

	w, body := serve(r, http.MethodPost, "/echo", `{"name":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["code"])

	w, body = serve(r, http.MethodPost, "/echo", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["msg"], "name")

	w, _ = serve(r, http.MethodPost, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActionRoles(t *testing.T) {
	for _, tc := range []struct {
		user   *domain.User
		status int
	}{
		{nil, http.StatusUnauthorized},
		{&domain.User{ID: "u", Role: domain.RoleUser}, http.StatusUnauthorized},
		{&domain.User{ID: "a", Role: domain.RoleAdmin}, http.StatusOK},
	} {
		r, e := engine(tc.user)
		RegisterAction(e, Action[struct{}, string]{
			Method:  http.MethodGet,
			Path:    "/admin-only",
			Binder:  BindNone,
			Roles:   []string{string(domain.RoleAdmin)},
			Handler: func(c *gin.Context, _ *struct{}) (string, error) { return Me(c).ID, nil },
		})
		w, _ := serve(r, http.MethodGet, "/admin-only", "")
		assert.Equal(t, tc.status, w.Code)
	}
}
