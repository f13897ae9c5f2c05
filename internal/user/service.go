// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/identity-service/internal/auth"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/events"
)

// DefaultRole is the role every registered user joins.
const DefaultRole = "Basic"

var (
	ErrEmailRegistered   = errors.New("email address is already registered")
	ErrUserNameTaken     = errors.New("user name is already taken")
	ErrProtectedUser     = errors.New("modifying roles for this user is not allowed")
	ErrIncorrectPassword = errors.New("incorrect password")
)

type ServiceConfig struct {
	Repository Repository
	Events     events.Publisher
	// ProtectedEmail names the seeded administrator whose role membership
	// cannot be changed through the API.
	ProtectedEmail string
	Logger         *slog.Logger
}

type Service struct {
	repo           Repository
	events         events.Publisher
	protectedEmail string
	logger         *slog.Logger
	now            func() time.Time
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
		repo:           cfg.Repository,
		events:         publisher,
		protectedEmail: normalizeEmail(cfg.ProtectedEmail),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *Service) GetByUserName(
	ctx context.Context,
	userName string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Register creates an account and places it in the default role.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*User, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailRegistered
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := &User{
		ID:             uuid.New().String(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		UserName:       strings.TrimSpace(req.UserName),
		Email:          email,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   hash,
		IsActive:       req.ActivateUser,
		EmailConfirmed: req.AutoConfirmEmail,
	}

	if err := s.repo.Create(ctx, user, DefaultRole); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, ErrEmailRegistered
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrUserNameTaken
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	s.events.Publish(ctx, events.QueueUserRegistered, events.UserRegistered{
		UserID:     user.ID,
		UserName:   user.UserName,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.PhoneNumber = req.PhoneNumber

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// The refresh slot is left alone.
func (s *Service) ChangePassword(
	ctx context.Context,
	req ChangePasswordRequest,
) error {
	user, err := s.repo.GetByID(ctx, req.UserID)
	if err != nil {
		return err
	}

	ok, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return ErrIncorrectPassword
	}

	hash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

func (s *Service) ChangeStatus(
	ctx context.Context,
	req ChangeUserStatusRequest,
) error {
	return s.repo.UpdateStatus(ctx, req.UserID, req.ActivateOrDeactivate)
}

func (s *Service) GetUserRoles(
	ctx context.Context,
	userID string,
) ([]RoleAssignment, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.repo.ListRoles(ctx, userID)
}

// UpdateUserRoles replaces the user's role membership with the roles
// flagged as assigned. Tokens already issued keep their old claims.
func (s *Service) UpdateUserRoles(
	ctx context.Context,
	req UpdateUserRolesRequest,
) error {
	user, err := s.repo.GetByID(ctx, req.UserID)
	if err != nil {
		return err
	}

	if s.protectedEmail != "" && user.Email == s.protectedEmail {
		return ErrProtectedUser
	}

	return s.repo.ReplaceRoles(ctx, user.ID, req.AssignedRoleNames())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:             u.ID,
		UserName:       u.UserName,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		PasswordHash:   u.PasswordHash,
		IsActive:       u.IsActive,
		EmailConfirmed: u.EmailConfirmed,
	}
}

var _ auth.UserProvider = (*Service)(nil)
