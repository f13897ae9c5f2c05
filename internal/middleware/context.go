// AngelaMos | 2026
// context.go

package middleware

import (
	"context"

	"github.com/carterperez-dev/identity-service/internal/claims"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	ClaimsKey    contextKey = "token_claims"
)

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims returns the claim set carried by the verified access token,
// or nil for anonymous requests.
func GetClaims(ctx context.Context) *claims.Set {
	if set, ok := ctx.Value(ClaimsKey).(*claims.Set); ok {
		return set
	}
	return nil
}

// WithClaims attaches a verified claim set to ctx.
func WithClaims(ctx context.Context, userID string, set *claims.Set) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, ClaimsKey, set)
}
