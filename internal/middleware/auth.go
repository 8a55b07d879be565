package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// ClaimsKey is the context key for the verified token claims.
	ClaimsKey contextKey = "claims"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetClaims returns the verified token claims, or nil.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// WithUser returns a context carrying userID and claims, as RequireAuth does.
func WithUser(ctx context.Context, userID string, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	if claims != nil {
		ctx = context.WithValue(ctx, ClaimsKey, claims)
	}
	return ctx
}

// RequireAuth returns a middleware that verifies bearer tokens and requires authentication.
// It extracts the token from the Authorization header, verifies it, and adds
// the user ID and claims to the request context.
func RequireAuth(verifier *auth.Verifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithUser(ctx, claims.UserID(), claims), req)
		}
	}
}
