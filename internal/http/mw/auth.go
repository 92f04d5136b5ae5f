// Package mw contains HTTP middleware for the dispensary API.
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mhartig/dispensary-api/internal/service"
)

// ContextKey is a type for context keys.
type ContextKey string

// UserClaimsKey is the context key for session claims.
const UserClaimsKey ContextKey = "user_claims"

// SecurityScheme is the name of the security scheme used in OpenAPI.
const SecurityScheme = "bearerAuth"

// MetaKeyRequireAdmin marks an operation as admin-only in its metadata.
const MetaKeyRequireAdmin = "requireAdmin"

// HumaAuth returns a Huma middleware that authenticates operations declaring
// bearerAuth in their security requirements. Operations with the requireAdmin
// metadata flag additionally need an admin session.
func HumaAuth(api huma.API, authSvc *service.AuthService) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op == nil || !operationRequiresAuth(op) {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		if authHeader == "" {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := authSvc.ValidateToken(token)
		if err != nil {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid token")
			return
		}

		if requiresAdmin(op) && !claims.IsAdmin() {
			huma.WriteErr(api, ctx, http.StatusForbidden, "admin access required")
			return
		}

		newCtx := context.WithValue(ctx.Context(), UserClaimsKey, claims)
		next(huma.WithContext(ctx, newCtx))
	}
}

// GetUserClaims extracts session claims from a request context. Returns nil
// on unauthenticated requests.
func GetUserClaims(ctx context.Context) *service.TokenClaims {
	claims, _ := ctx.Value(UserClaimsKey).(*service.TokenClaims)
	return claims
}

func operationRequiresAuth(op *huma.Operation) bool {
	for _, secReq := range op.Security {
		if _, ok := secReq[SecurityScheme]; ok {
			return true
		}
	}
	return false
}

func requiresAdmin(op *huma.Operation) bool {
	if op.Metadata == nil {
		return false
	}
	if val, ok := op.Metadata[MetaKeyRequireAdmin]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
