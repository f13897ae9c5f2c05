// AngelaMos | 2026
// directory.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/identity-service/internal/core"
)

type IdentityStats struct {
	Users            int `db:"users"             json:"users"`
	ActiveUsers      int `db:"active_users"      json:"active_users"`
	UnconfirmedUsers int `db:"unconfirmed_users" json:"unconfirmed_users"`
	Roles            int `db:"roles"             json:"roles"`
	RoleClaims       int `db:"role_claims"       json:"role_claims"`
}

type Directory interface {
	Counts(ctx context.Context) (*IdentityStats, error)
}

type directory struct {
	db core.DBTX
}

func NewDirectory(db core.DBTX) Directory {
	return &directory{db: db}
}

func (d *directory) Counts(ctx context.Context) (*IdentityStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE is_active) AS active_users,
			(SELECT COUNT(*) FROM users WHERE NOT email_confirmed) AS unconfirmed_users,
			(SELECT COUNT(*) FROM roles) AS roles,
			(SELECT COUNT(*) FROM role_claims) AS role_claims`

	var stats IdentityStats
	err := core.WithRetry(ctx, func(ctx context.Context) error {
		return d.db.GetContext(ctx, &stats, query)
	})
	if err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}

	return &stats, nil
}
