// AngelaMos | 2026
// entity.go

package role

import (
	"strings"
	"time"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

const (
	Admin = "Admin"
	Basic = "Basic"
)

type Role struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsAdmin reports whether r is the built-in administrator role, which
// cannot be renamed, deleted or have its permissions edited.
func (r *Role) IsAdmin() bool {
	return strings.EqualFold(r.Name, Admin)
}

// DefaultDescription is the description given to seeded roles.
func DefaultDescription(name string) string {
	return name + " Role."
}

// Claim is a role_claims row. Permission claims carry the catalog
// description and group they were stored with.
type Claim struct {
	Type        string `db:"claim_type"`
	Value       string `db:"claim_value"`
	Description string `db:"description"`
	Group       string `db:"group_name"`
}

// NewClaim wraps a plain claim with no catalog metadata.
func NewClaim(c claims.Claim) Claim {
	return Claim{Type: c.Type, Value: c.Value}
}

// PermissionClaim builds the stored form of a catalog permission.
func PermissionClaim(e permission.Entry) Claim {
	return Claim{
		Type:        claims.TypePermission,
		Value:       e.Name,
		Description: e.Description,
		Group:       e.Group,
	}
}

func (c Claim) Claim() claims.Claim {
	return claims.New(c.Type, c.Value)
}

// withCatalog fills a blank description and group from the permission
// catalog when c names a known permission.
func (c Claim) withCatalog() Claim {
	if c.Type != claims.TypePermission {
		return c
	}
	e, ok := permission.Lookup(c.Value)
	if !ok {
		return c
	}
	if c.Description == "" {
		c.Description = e.Description
	}
	if c.Group == "" {
		c.Group = e.Group
	}
	return c
}
