package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextLoginIDKey stores the login id inside Gin context.
	ContextLoginIDKey = "login_id"
	// ContextTokenKey keeps the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextClaimsKey keeps the validated claims.
	ContextClaimsKey = "claims"
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	Validate(token string) (*services.Claims, bool)
}

// RevocationChecker reports tokens revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// RoleLookup resolves the role of a user for capability checks.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID uint) (models.Role, error)
}

// Authenticate binds the caller's identity when a valid bearer token is present.
// It never rejects: missing or bad tokens simply leave the request anonymous.
func Authenticate(tokens TokenValidator, revoked RevocationChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := BearerToken(ctx)
		if token == "" {
			ctx.Next()
			return
		}
		if revoked != nil && revoked.IsRevoked(ctx.Request.Context(), token) {
			ctx.Next()
			return
		}
		claims, ok := tokens.Validate(token)
		if !ok {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextLoginIDKey, claims.LoginID)
		ctx.Set(ContextTokenKey, token)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserID returns the authenticated user id, if any.
func UserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// RouteSet is a fixed set of "METHOD /full/path" route patterns.
type RouteSet map[string]struct{}

func NewRouteSet(routes ...string) RouteSet {
	set := make(RouteSet, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return set
}

func (s RouteSet) Contains(method, fullPath string) bool {
	_, ok := s[method+" "+fullPath]
	return ok
}

// RequireUser rejects anonymous callers on every matched route that is not in public.
// Unmatched routes pass through so the 404 handler can answer.
func RequireUser(public RouteSet) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fullPath := ctx.FullPath()
		if fullPath == "" || ctx.Request.Method == "OPTIONS" || public.Contains(ctx.Request.Method, fullPath) {
			ctx.Next()
			return
		}
		if _, ok := UserID(ctx); !ok {
			utils.Fail(ctx, utils.Unauthorized("authentication required"))
			return
		}
		ctx.Next()
	}
}

// RequireCapability rejects callers whose role does not grant capability.
func RequireCapability(lookup RoleLookup, capability models.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := UserID(ctx)
		if !ok {
			utils.Fail(ctx, utils.Unauthorized("authentication required"))
			return
		}
		role, err := lookup.RoleOf(ctx.Request.Context(), userID)
		if err != nil {
			if utils.KindOf(err) == utils.KindNotFound {
				// token outlived its account
				utils.Fail(ctx, utils.Unauthorized("authentication required"))
				return
			}
			utils.Fail(ctx, err)
			return
		}
		if !role.Can(capability) {
			utils.Fail(ctx, utils.Forbidden("insufficient permissions"))
			return
		}
		ctx.Next()
	}
}
