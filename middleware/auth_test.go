package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

type fakeRoles map[uint]models.Role

func (f fakeRoles) RoleOf(ctx context.Context, userID uint) (models.Role, error) {
	role, ok := f[userID]
	if !ok {
		return "", utils.NotFound("user not found")
	}
	return role, nil
}

type brokenRoles struct{}

func (brokenRoles) RoleOf(ctx context.Context, userID uint) (models.Role, error) {
	return "", errors.New("db down")
}

func newEngine(tokens *services.TokenService, blacklist *utils.TokenBlacklist, roles RoleLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(Authenticate(tokens, blacklist), RequireUser(NewRouteSet("GET /api/public", "GET /api/items/:id")))
	whoami := func(ctx *gin.Context) {
		id, ok := UserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	}
	api.GET("/public", whoami)
	api.GET("/items/:id", whoami)
	api.POST("/items/:id", whoami)
	api.GET("/private", whoami)
	api.POST("/admin", RequireCapability(roles, models.CapManageCategories), whoami)
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouteClassification(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	r := newEngine(tokens, utils.NewTokenBlacklist(nil), fakeRoles{})
	token, err := tokens.Issue(7, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public anonymous", http.MethodGet, "/api/public", "", http.StatusOK},
		{"public with param", http.MethodGet, "/api/items/3", "", http.StatusOK},
		{"same path other method", http.MethodPost, "/api/items/3", "", http.StatusUnauthorized},
		{"private anonymous", http.MethodGet, "/api/private", "", http.StatusUnauthorized},
		{"private bad token", http.MethodGet, "/api/private", "garbage", http.StatusUnauthorized},
		{"public bad token stays anonymous", http.MethodGet, "/api/public", "garbage", http.StatusOK},
		{"private good token", http.MethodGet, "/api/private", token, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.token)
			if w.Code != tc.want {
				t.Fatalf("%s %s: got %d want %d (%s)", tc.method, tc.path, w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestRevokedTokenIsAnonymous(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	blacklist := utils.NewTokenBlacklist(nil)
	r := newEngine(tokens, blacklist, fakeRoles{})
	token, err := tokens.Issue(7, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if w := do(r, http.MethodGet, "/api/private", token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 before revoke, got %d", w.Code)
	}
	if err := blacklist.Revoke(context.Background(), token, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if w := do(r, http.MethodGet, "/api/private", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revoke, got %d", w.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	roles := fakeRoles{1: models.RoleAdmin, 2: models.RoleUser, 3: models.RoleModerator}
	r := newEngine(tokens, utils.NewTokenBlacklist(nil), roles)

	issue := func(id uint) string {
		token, err := tokens.Issue(id, "u")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return token
	}
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"admin", issue(1), http.StatusOK},
		{"user", issue(2), http.StatusForbidden},
		{"moderator", issue(3), http.StatusForbidden},
		{"deleted account", issue(4), http.StatusUnauthorized},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(r, http.MethodPost, "/api/admin", tc.token); w.Code != tc.want {
				t.Fatalf("got %d want %d", w.Code, tc.want)
			}
		})
	}

	broken := newEngine(tokens, utils.NewTokenBlacklist(nil), brokenRoles{})
	if w := do(broken, http.MethodPost, "/api/admin", issue(1)); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on lookup failure, got %d", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"Basic abc":     "",
		"Bearer":        "",
		"Token abc def": "",
	}
	for header, want := range cases {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		ctx.Request.Header.Set("Authorization", header)
		if got := BearerToken(ctx); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
