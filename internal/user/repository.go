// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/identity-service/internal/core"
)

var ErrUnknownRole = fmt.Errorf("unknown role: %w", core.ErrInvalidInput)

// ErrDuplicateEmail is returned by Create when the email is already
// stored. Other unique violations surface as core.ErrDuplicateKey.
var ErrDuplicateEmail = fmt.Errorf("email: %w", core.ErrDuplicateKey)

const emailConstraint = "users_email_key"

type Repository interface {
	Create(ctx context.Context, user *User, roleNames ...string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateStatus(ctx context.Context, id string, active bool) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListRoles(ctx context.Context, userID string) ([]RoleAssignment, error)
	ReplaceRoles(ctx context.Context, userID string, roleNames []string) error
}

type repository struct {
	db core.DB
}

func NewRepository(db core.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, first_name, last_name, user_name, email, phone_number,
		       password_hash, is_active, email_confirmed, refresh_token_hash,
		       refresh_token_expiry, created_at, updated_at`

// Create inserts the user and its initial role memberships atomically.
func (r *repository) Create(
	ctx context.Context,
	user *User,
	roleNames ...string,
) error {
	query := `
		INSERT INTO users (id, first_name, last_name, user_name, email,
		                   phone_number, password_hash, is_active, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
			row := tx.QueryRowxContext(ctx, query,
				user.ID,
				user.FirstName,
				user.LastName,
				user.UserName,
				user.Email,
				user.PhoneNumber,
				user.PasswordHash,
				user.IsActive,
				user.EmailConfirmed,
			)
			if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
				return err
			}

			for _, name := range roleNames {
				if err := addRole(ctx, tx, user.ID, name); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			if core.DuplicateKeyConstraint(err) == emailConstraint {
				return fmt.Errorf("create user: %w", ErrDuplicateEmail)
			}
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, where, arg string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user User
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &user, query, arg)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", "id = $1", id)
}

func (r *repository) GetByUserName(
	ctx context.Context,
	userName string,
) (*User, error) {
	return r.getOne(ctx, "get user by user name", "user_name = $1", userName)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email", "email = $1", email)
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, user_name`

	var users []User
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		users = users[:0]
		return r.db.SelectContext(ctx, &users, query)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &user.UpdatedAt, query,
			user.ID,
			user.FirstName,
			user.LastName,
			user.PhoneNumber,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	active bool,
) error {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update status", query, id, active)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	var rows int64
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &exists, query, email)
	})
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) ListRoles(
	ctx context.Context,
	userID string,
) ([]RoleAssignment, error) {
	query := `
		SELECT r.id, r.name, r.description,
		       EXISTS(SELECT 1 FROM user_roles ur
		              WHERE ur.user_id = $1 AND ur.role_id = r.id) AS is_assigned
		FROM roles r
		ORDER BY r.name`

	var roles []RoleAssignment
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		roles = roles[:0]
		return r.db.SelectContext(ctx, &roles, query, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}

	return roles, nil
}

// ReplaceRoles swaps the user's membership set for roleNames in one
// transaction. An unknown role name aborts the whole change.
func (r *repository) ReplaceRoles(
	ctx context.Context,
	userID string,
	roleNames []string,
) error {
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM user_roles WHERE user_id = $1`, userID,
			); err != nil {
				return err
			}

			for _, name := range roleNames {
				if err := addRole(ctx, tx, userID, name); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("replace user roles: %w", err)
	}

	return nil
}

func addRole(ctx context.Context, tx *sqlx.Tx, userID, roleName string) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE LOWER(name) = LOWER($2)
		ON CONFLICT DO NOTHING`,
		userID, roleName,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
	}
	return nil
}
