// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/events"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

var (
	ErrRoleExists        = errors.New("role already exists")
	ErrProtectedRole     = errors.New("protected role")
	ErrUnknownPermission = fmt.Errorf("unknown permission: %w", core.ErrInvalidInput)

	ErrAdminUpdate      = fmt.Errorf("cannot update admin role: %w", ErrProtectedRole)
	ErrAdminDelete      = fmt.Errorf("cannot delete admin role: %w", ErrProtectedRole)
	ErrAdminPermissions = fmt.Errorf(
		"cannot update permissions for admin role: %w", ErrProtectedRole,
	)
)

// InUseError reports a delete refused because users still hold the role.
type InUseError struct {
	Name string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("role %s is currently assigned to a user", e.Name)
}

func (e *InUseError) Unwrap() error {
	return core.ErrConflict
}

type ServiceConfig struct {
	Repository Repository
	Events     events.Publisher
	Logger     *slog.Logger
}

type Service struct {
	repo   Repository
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:   cfg.Repository,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	name := strings.TrimSpace(req.Name)

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, ErrRoleExists
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	role := &Role{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.repo.Create(ctx, role); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrRoleExists
		}
		return nil, err
	}

	return role, nil
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, req UpdateRoleRequest) (*Role, error) {
	role, err := s.repo.GetByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	if role.IsAdmin() {
		return nil, ErrAdminUpdate
	}

	role.Name = strings.TrimSpace(req.Name)
	role.Description = strings.TrimSpace(req.Description)

	if err := s.repo.Update(ctx, role); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrRoleExists
		}
		return nil, err
	}

	return role, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if role.IsAdmin() {
		return ErrAdminDelete
	}

	assigned, err := s.repo.IsAssigned(ctx, id)
	if err != nil {
		return err
	}
	if assigned {
		return &InUseError{Name: role.Name}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return &InUseError{Name: role.Name}
		}
		return err
	}

	return nil
}

// Permissions returns the role with the catalog permissions it holds,
// keyed by value. Stored values outside the catalog are not reported.
func (s *Service) Permissions(ctx context.Context, id string) (*PermissionsView, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	held, err := s.repo.ListClaims(ctx, id)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]Claim, len(held))
	for _, c := range held {
		if c.Type == claims.TypePermission && permission.IsValid(c.Value) {
			assigned[c.Value] = c
		}
	}

	return &PermissionsView{Role: role, Assigned: assigned}, nil
}

// UpdatePermissions replaces the role's permissions with those flagged as
// assigned. Every value must be a catalog entry. Tokens already issued
// keep the permissions they were minted with.
func (s *Service) UpdatePermissions(
	ctx context.Context,
	req UpdatePermissionsRequest,
) error {
	role, err := s.repo.GetByID(ctx, req.RoleID)
	if err != nil {
		return err
	}

	if role.IsAdmin() {
		return ErrAdminPermissions
	}

	values := req.AssignedValues()
	perms := make([]Claim, 0, len(values))
	for _, v := range values {
		e, ok := permission.Lookup(v)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, v)
		}
		perms = append(perms, PermissionClaim(e))
	}

	if err := s.repo.ReplacePermissions(ctx, role.ID, perms); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "role permissions updated",
		"role_id", role.ID,
		"count", len(values),
	)
	s.events.Publish(ctx, events.QueueRolePermissionsUpdated, events.RolePermissionsUpdated{
		RoleID:      role.ID,
		RoleName:    role.Name,
		Permissions: values,
		OccurredAt:  s.now().UTC(),
	})

	return nil
}
