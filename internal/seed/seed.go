// AngelaMos | 2026
// seed.go

package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/identity-service/internal/config"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/permission"
	"github.com/carterperez-dev/identity-service/internal/role"
	"github.com/carterperez-dev/identity-service/internal/user"
)

type RoleStore interface {
	GetByName(ctx context.Context, name string) (*role.Role, error)
	Create(ctx context.Context, r *role.Role) error
	AddClaim(ctx context.Context, roleID string, claim role.Claim) (bool, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User, roleNames ...string) error
}

// Report summarizes what a run changed.
type Report struct {
	RolesCreated []string
	ClaimsAdded  int
	UsersCreated []string
}

type defaultUser struct {
	firstName string
	lastName  string
	email     string
	password  string
	phone     string
	roles     []string
}

type Seeder struct {
	roles  RoleStore
	users  UserStore
	cfg    config.SeedConfig
	logger *slog.Logger
}

func New(
	roles RoleStore,
	users UserStore,
	cfg config.SeedConfig,
	logger *slog.Logger,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{roles: roles, users: users, cfg: cfg, logger: logger}
}

// Run creates the built-in roles, their catalog permissions and the
// default accounts. Existing rows are left untouched, so running it twice
// changes nothing the second time.
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	results := make([]roleResult, 2)

	g, gctx := errgroup.WithContext(ctx)
	for i, want := range []struct {
		name  string
		perms []permission.Entry
	}{
		{role.Admin, permission.Admin()},
		{role.Basic, permission.Basic()},
	} {
		g.Go(func() error {
			res, err := s.ensureRole(gctx, want.name, want.perms)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	for _, res := range results {
		if res.created {
			report.RolesCreated = append(report.RolesCreated, res.name)
		}
		report.ClaimsAdded += res.claimsAdded
	}

	created := make([]bool, 2)
	accounts := s.defaultUsers()

	g, gctx = errgroup.WithContext(ctx)
	for i, du := range accounts {
		g.Go(func() error {
			ok, err := s.ensureUser(gctx, du)
			created[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	for i, ok := range created {
		if ok {
			report.UsersCreated = append(report.UsersCreated, accounts[i].email)
		}
	}

	s.logger.InfoContext(ctx, "seeding complete",
		"roles_created", len(report.RolesCreated),
		"claims_added", report.ClaimsAdded,
		"users_created", len(report.UsersCreated),
	)

	return report, nil
}

func (s *Seeder) defaultUsers() []defaultUser {
	return []defaultUser{
		{
			firstName: "System",
			lastName:  "Admin",
			email:     s.cfg.AdminEmail,
			password:  s.cfg.AdminPassword,
			phone:     "111-111-1111",
			roles:     []string{role.Admin, role.Basic},
		},
		{
			firstName: "John",
			lastName:  "Doe",
			email:     s.cfg.BasicEmail,
			password:  s.cfg.BasicPassword,
			phone:     "222-222-2222",
			roles:     []string{role.Basic},
		},
	}
}

type roleResult struct {
	name        string
	created     bool
	claimsAdded int
}

func (s *Seeder) ensureRole(
	ctx context.Context,
	name string,
	perms []permission.Entry,
) (roleResult, error) {
	res := roleResult{name: name}

	r, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		r = &role.Role{
			ID:          uuid.New().String(),
			Name:        name,
			Description: role.DefaultDescription(name),
		}
		err = s.roles.Create(ctx, r)
		switch {
		case err == nil:
			res.created = true
		case errors.Is(err, core.ErrDuplicateKey):
			r, err = s.roles.GetByName(ctx, name)
		}
	}
	if err != nil {
		return res, fmt.Errorf("role %s: %w", name, err)
	}

	for _, p := range perms {
		added, err := s.roles.AddClaim(ctx, r.ID, role.PermissionClaim(p))
		if err != nil {
			return res, fmt.Errorf("role %s: %w", name, err)
		}
		if added {
			res.claimsAdded++
		}
	}

	return res, nil
}

func (s *Seeder) ensureUser(ctx context.Context, du defaultUser) (bool, error) {
	if du.email == "" {
		return false, nil
	}

	_, err := s.users.GetByEmail(ctx, du.email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("user %s: %w", du.email, err)
	}

	hash, err := core.HashPassword(du.password)
	if err != nil {
		return false, fmt.Errorf("user %s: %w", du.email, err)
	}

	phone := du.phone
	u := &user.User{
		ID:             uuid.New().String(),
		FirstName:      du.firstName,
		LastName:       du.lastName,
		UserName:       du.email,
		Email:          du.email,
		PhoneNumber:    &phone,
		PasswordHash:   hash,
		IsActive:       true,
		EmailConfirmed: true,
	}

	if err := s.users.Create(ctx, u, du.roles...); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("user %s: %w", du.email, err)
	}

	return true, nil
}
