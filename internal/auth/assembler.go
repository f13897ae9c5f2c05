// AngelaMos | 2026
// assembler.go

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
)

// ClaimSource reads the role and claim assignments a token is built from.
type ClaimSource interface {
	RolesForUser(ctx context.Context, userID string) ([]RoleRef, error)
	ClaimsForRole(ctx context.Context, roleID string) ([]claims.Claim, error)
	ClaimsForUser(ctx context.Context, userID string) ([]claims.Claim, error)
}

// ClaimsAssembler flattens a user's identity, roles and granted
// permissions into one claim set.
//
// The set reflects assignments at the moment Assemble runs. Tokens built
// from it keep that snapshot until they expire; later grants or revocations
// only show up in tokens issued afterwards.
type ClaimsAssembler struct {
	source ClaimSource
	logger *slog.Logger
}

func NewClaimsAssembler(source ClaimSource, logger *slog.Logger) *ClaimsAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimsAssembler{source: source, logger: logger}
}

func (a *ClaimsAssembler) Assemble(
	ctx context.Context,
	user *UserInfo,
) (*claims.Set, error) {
	ctx, span := core.StartSpan(ctx, "auth.assemble_claims")
	defer span.End()

	set := claims.NewSet(
		claims.New(claims.TypeNameIdentifier, user.ID),
		claims.New(claims.TypeName, user.FirstName),
		claims.New(claims.TypeSurname, user.LastName),
		claims.New(claims.TypeEmail, user.Email),
		claims.New(claims.TypeMobilePhone, user.Phone()),
	)

	roles, err := a.source.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}

	for _, role := range roles {
		set.Add(claims.Role(role.Name))

		roleClaims, err := a.source.ClaimsForRole(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("load claims for role %s: %w", role.Name, err)
		}
		set.AddAll(a.usable(ctx, user.ID, roleClaims)...)
	}

	userClaims, err := a.source.ClaimsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load user claims: %w", err)
	}
	set.AddAll(a.usable(ctx, user.ID, userClaims)...)

	span.SetAttributes(
		attribute.Int("claims.roles", len(roles)),
		attribute.Int("claims.total", set.Len()),
	)

	return set, nil
}

// usable drops claims whose type collides with a registered JWT claim name.
// Such a claim could never be signed, and keeping it would lock the user out.
func (a *ClaimsAssembler) usable(
	ctx context.Context,
	userID string,
	cs []claims.Claim,
) []claims.Claim {
	out := cs[:0:0]
	for _, c := range cs {
		if _, reserved := registeredClaims[c.Type]; reserved {
			a.logger.WarnContext(ctx, "skipping claim with reserved type",
				"user_id", userID,
				"claim_type", c.Type,
			)
			continue
		}
		out = append(out, c)
	}
	return out
}
