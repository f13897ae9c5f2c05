// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
)

// Repository is the persistence the token flows need: claim sources for
// assembly and the user's single refresh slot.
type Repository interface {
	ClaimSource
	StoreRefreshToken(
		ctx context.Context,
		userID, tokenHash string,
		expiresAt time.Time,
	) error
	RotateRefreshToken(
		ctx context.Context,
		userID, oldHash, newHash string,
		expiresAt, now time.Time,
	) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) RolesForUser(
	ctx context.Context,
	userID string,
) ([]RoleRef, error) {
	query := `
		SELECT r.id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name`

	var roles []RoleRef
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		roles = roles[:0]
		return r.db.SelectContext(ctx, &roles, query, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}

	return roles, nil
}

func (r *repository) ClaimsForRole(
	ctx context.Context,
	roleID string,
) ([]claims.Claim, error) {
	query := `
		SELECT claim_type, claim_value
		FROM role_claims
		WHERE role_id = $1
		ORDER BY id`

	var out []claims.Claim
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		return r.db.SelectContext(ctx, &out, query, roleID)
	})
	if err != nil {
		return nil, fmt.Errorf("claims for role: %w", err)
	}

	return out, nil
}

func (r *repository) ClaimsForUser(
	ctx context.Context,
	userID string,
) ([]claims.Claim, error) {
	query := `
		SELECT claim_type, claim_value
		FROM user_claims
		WHERE user_id = $1
		ORDER BY id`

	var out []claims.Claim
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		return r.db.SelectContext(ctx, &out, query, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("claims for user: %w", err)
	}

	return out, nil
}

// StoreRefreshToken overwrites the slot, invalidating whatever was there.
func (r *repository) StoreRefreshToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET refresh_token_hash = $2,
			refresh_token_expiry = $3,
			updated_at = NOW()
		WHERE id = $1`

	var affected int64
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("store refresh token: %w", core.ErrNotFound)
	}

	return nil
}

// RotateRefreshToken replaces the slot only if it still holds oldHash and
// has not expired at now. It reports false when another writer got there
// first or the token is stale.
func (r *repository) RotateRefreshToken(
	ctx context.Context,
	userID, oldHash, newHash string,
	expiresAt, now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET refresh_token_hash = $3,
			refresh_token_expiry = $4,
			updated_at = NOW()
		WHERE id = $1
			AND refresh_token_hash = $2
			AND refresh_token_expiry > $5`

	var affected int64
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(
			ctx,
			query,
			userID,
			oldHash,
			newHash,
			expiresAt,
			now,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}

	return affected == 1, nil
}
