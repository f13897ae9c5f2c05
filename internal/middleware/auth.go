// AngelaMos | 2026
// auth.go

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/identity-service/internal/auth"
	"github.com/carterperez-dev/identity-service/internal/core"
)

type TokenVerifier interface {
	Verify(token string, opts auth.VerifyOptions) (*auth.VerifiedToken, error)
}

// Authenticator verifies the bearer token in strict mode and stores its
// claim set on the request context. Claims are taken from the token as
// issued; later role or permission changes are not reflected until the
// caller obtains a new token.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			verified, err := verifier.Verify(token, auth.VerifyOptions{})
			if err != nil {
				handleAuthError(w, err)
				return
			}

			ctx := WithClaims(r.Context(), verified.Subject, verified.Claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrTokenExpired) {
		core.JSONError(w, core.TokenExpiredError())
		return
	}
	core.JSONError(w, core.TokenInvalidError())
}
