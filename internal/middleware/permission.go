// AngelaMos | 2026
// permission.go

package middleware

import (
	"net/http"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
)

type PermissionAuthorizer interface {
	Authorize(set *claims.Set, permission string) error
}

// RequirePermission admits the request only when the caller's token
// carries the exact Permission claim named by permission.
func RequirePermission(
	authorizer PermissionAuthorizer,
	permission string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := GetClaims(r.Context())
			if set == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if err := authorizer.Authorize(set, permission); err != nil {
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
