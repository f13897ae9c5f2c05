// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
)

type Repository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id string) error
	IsAssigned(ctx context.Context, id string) (bool, error)
	ListClaims(ctx context.Context, roleID string) ([]Claim, error)
	AddClaim(ctx context.Context, roleID string, claim Claim) (bool, error)
	ReplacePermissions(ctx context.Context, roleID string, perms []Claim) error
}

type repository struct {
	db core.DB
}

func NewRepository(db core.DB) Repository {
	return &repository{db: db}
}

const roleColumns = `id, name, description, created_at, updated_at`

func (r *repository) Create(ctx context.Context, role *Role) error {
	query := `
		INSERT INTO roles (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRowxContext(ctx, query,
			role.ID,
			role.Name,
			role.Description,
		).Scan(&role.CreatedAt, &role.UpdatedAt)
	})
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create role: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, where, arg string,
) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE ` + where

	var role Role
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &role, query, arg)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &role, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Role, error) {
	return r.getOne(ctx, "get role", "id = $1", id)
}

// GetByName matches case-insensitively, like the unique index on names.
func (r *repository) GetByName(ctx context.Context, name string) (*Role, error) {
	return r.getOne(ctx, "get role by name", "LOWER(name) = LOWER($1)", name)
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY name`

	var roles []Role
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		roles = roles[:0]
		return r.db.SelectContext(ctx, &roles, query)
	})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) Update(ctx context.Context, role *Role) error {
	query := `
		UPDATE roles
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &role.UpdatedAt, query,
			role.ID,
			role.Name,
			role.Description,
		)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("update role: %w", core.ErrNotFound)
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("update role: %w", core.ErrDuplicateKey)
	case err != nil:
		return fmt.Errorf("update role: %w", err)
	}

	return nil
}

// Delete removes the role and, by cascade, its claims. Memberships
// restrict the delete, which surfaces as core.ErrConflict.
func (r *repository) Delete(ctx context.Context, id string) error {
	var rows int64
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete role: %w", core.ErrConflict)
		}
		return fmt.Errorf("delete role: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) IsAssigned(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_roles WHERE role_id = $1)`

	var assigned bool
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &assigned, query, id)
	})
	if err != nil {
		return false, fmt.Errorf("check role assigned: %w", err)
	}

	return assigned, nil
}

func (r *repository) ListClaims(
	ctx context.Context,
	roleID string,
) ([]Claim, error) {
	query := `
		SELECT claim_type, claim_value, description, group_name
		FROM role_claims
		WHERE role_id = $1
		ORDER BY id`

	var out []Claim
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		return r.db.SelectContext(ctx, &out, query, roleID)
	})
	if err != nil {
		return nil, fmt.Errorf("list role claims: %w", err)
	}

	return out, nil
}

// AddClaim attaches claim to the role unless the pair already exists. It
// reports whether a row was inserted. Catalog permissions missing a
// description or group get them from the catalog.
func (r *repository) AddClaim(
	ctx context.Context,
	roleID string,
	claim Claim,
) (bool, error) {
	query := `
		INSERT INTO role_claims (role_id, claim_type, claim_value, description, group_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (role_id, claim_type, claim_value) DO NOTHING`

	claim = claim.withCatalog()

	var rows int64
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query,
			roleID, claim.Type, claim.Value, claim.Description, claim.Group)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("add role claim: %w", err)
	}

	return rows == 1, nil
}

// ReplacePermissions swaps the role's Permission claims for perms in one
// transaction. Claims of other types are kept.
func (r *repository) ReplacePermissions(
	ctx context.Context,
	roleID string,
	perms []Claim,
) error {
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM role_claims
				WHERE role_id = $1 AND claim_type = $2`,
				roleID, claims.TypePermission,
			); err != nil {
				return err
			}

			for _, p := range perms {
				p.Type = claims.TypePermission
				p = p.withCatalog()
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO role_claims
						(role_id, claim_type, claim_value, description, group_name)
					VALUES ($1, $2, $3, $4, $5)`,
					roleID, claims.TypePermission, p.Value, p.Description, p.Group,
				); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("replace role permissions: %w", err)
	}

	return nil
}
