// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                 string     `db:"id"`
	FirstName          string     `db:"first_name"`
	LastName           string     `db:"last_name"`
	UserName           string     `db:"user_name"`
	Email              string     `db:"email"`
	PhoneNumber        *string    `db:"phone_number"`
	PasswordHash       string     `db:"password_hash"`
	IsActive           bool       `db:"is_active"`
	EmailConfirmed     bool       `db:"email_confirmed"`
	RefreshTokenHash   *string    `db:"refresh_token_hash"`
	RefreshTokenExpiry *time.Time `db:"refresh_token_expiry"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// RoleAssignment is one row of the user-roles view: every role, flagged
// with whether the user currently holds it.
type RoleAssignment struct {
	RoleID           string `db:"id"`
	RoleName         string `db:"name"`
	RoleDescription  string `db:"description"`
	IsAssignedToUser bool   `db:"is_assigned"`
}
