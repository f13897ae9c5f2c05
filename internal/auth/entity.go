// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// UserInfo is the view of a user account the token flows need.
type UserInfo struct {
	ID             string
	UserName       string
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    *string
	PasswordHash   string
	IsActive       bool
	EmailConfirmed bool
}

func (u *UserInfo) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// RoleRef names a role a user belongs to.
type RoleRef struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// TokenPair is never stored as a unit. Only the refresh token digest and
// its expiry persist, on the user row.
type TokenPair struct {
	AccessToken        string
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// refreshSlot is the value written into the user's single refresh slot.
type refreshSlot struct {
	token     string
	hash      string
	expiresAt time.Time
}
