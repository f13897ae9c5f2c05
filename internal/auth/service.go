// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/config"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/metrics"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInactiveAccount     = errors.New("account inactive")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrUserNotFound        = errors.New("user does not exist")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type UserProvider interface {
	GetByUserName(ctx context.Context, userName string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type IssuanceRecorder interface {
	TokenIssued(flow string)
	TokenFailure(flow, reason string)
}

type ServiceConfig struct {
	Repository   Repository
	UserProvider UserProvider
	Signer       *Signer
	Token        config.TokenConfig
	Metrics      IssuanceRecorder
	Logger       *slog.Logger
}

// Service issues token pairs. A user has one refresh slot; every issuance
// replaces it, so only the most recent refresh token is ever usable.
type Service struct {
	repo       Repository
	users      UserProvider
	assembler  *ClaimsAssembler
	signer     *Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    IssuanceRecorder
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:       cfg.Repository,
		users:      cfg.UserProvider,
		assembler:  NewClaimsAssembler(cfg.Repository, logger),
		signer:     cfg.Signer,
		accessTTL:  cfg.Token.AccessTokenTTL(),
		refreshTTL: cfg.Token.RefreshTokenTTL(),
		metrics:    cfg.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Login checks credentials before account state, so a wrong password on an
// inactive account still reports invalid credentials.
func (s *Service) Login(
	ctx context.Context,
	userName, password string,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.login")
	defer span.End()

	user, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, s.fail(ctx, metrics.FlowLogin, "error",
				fmt.Errorf("get user: %w", err))
		}
		//nolint:errcheck // only the hashing cost matters
		_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
		return nil, s.fail(ctx, metrics.FlowLogin, "invalid_credentials",
			ErrInvalidCredentials)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, s.fail(ctx, metrics.FlowLogin, "error",
			fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, s.fail(ctx, metrics.FlowLogin, "invalid_credentials",
			ErrInvalidCredentials)
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	if !user.IsActive {
		return nil, s.fail(ctx, metrics.FlowLogin, "inactive",
			ErrInactiveAccount)
	}
	if !user.EmailConfirmed {
		return nil, s.fail(ctx, metrics.FlowLogin, "email_unconfirmed",
			ErrEmailNotConfirmed)
	}

	accessToken, setLen, err := s.signAccess(ctx, metrics.FlowLogin, user)
	if err != nil {
		return nil, err
	}

	slot, err := s.newRefreshSlot()
	if err != nil {
		return nil, s.fail(ctx, metrics.FlowLogin, "error", err)
	}

	if err := s.repo.StoreRefreshToken(
		ctx,
		user.ID,
		slot.hash,
		slot.expiresAt,
	); err != nil {
		return nil, s.fail(ctx, metrics.FlowLogin, "error",
			fmt.Errorf("store refresh token: %w", err))
	}

	return s.issued(ctx, metrics.FlowLogin, user, accessToken, setLen, slot), nil
}

// Refresh exchanges a structurally valid access token, expired or not, and
// the user's current refresh token for a new pair. The slot is swapped with
// a conditional update on the old value, so of two concurrent calls with
// the same refresh token exactly one succeeds.
func (s *Service) Refresh(
	ctx context.Context,
	accessToken, refreshToken string,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.refresh")
	defer span.End()

	verified, err := s.signer.Verify(
		accessToken,
		VerifyOptions{IgnoreLifetime: true},
	)
	if err != nil {
		return nil, s.fail(ctx, metrics.FlowRefresh, "invalid_access_token",
			fmt.Errorf("%w: %w", ErrInvalidAccessToken, err))
	}

	email, ok := verified.Claims.First(claims.TypeEmail)
	if !ok || email == "" {
		return nil, s.fail(ctx, metrics.FlowRefresh, "invalid_access_token",
			ErrInvalidAccessToken)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.fail(ctx, metrics.FlowRefresh, "user_not_found",
				ErrUserNotFound)
		}
		return nil, s.fail(ctx, metrics.FlowRefresh, "error",
			fmt.Errorf("get user: %w", err))
	}

	if refreshToken == "" {
		return nil, s.fail(ctx, metrics.FlowRefresh, "invalid_refresh_token",
			ErrInvalidRefreshToken)
	}

	accessToken, setLen, err := s.signAccess(ctx, metrics.FlowRefresh, user)
	if err != nil {
		return nil, err
	}

	slot, err := s.newRefreshSlot()
	if err != nil {
		return nil, s.fail(ctx, metrics.FlowRefresh, "error", err)
	}

	rotated, err := s.repo.RotateRefreshToken(
		ctx,
		user.ID,
		core.HashToken(refreshToken),
		slot.hash,
		slot.expiresAt,
		s.now(),
	)
	if err != nil {
		return nil, s.fail(ctx, metrics.FlowRefresh, "error",
			fmt.Errorf("rotate refresh token: %w", err))
	}
	if !rotated {
		return nil, s.fail(ctx, metrics.FlowRefresh, "invalid_refresh_token",
			ErrInvalidRefreshToken)
	}

	return s.issued(ctx, metrics.FlowRefresh, user, accessToken, setLen, slot), nil
}

// signAccess builds and signs the access token before any refresh state is
// written, so a failure here leaves the stored slot untouched.
func (s *Service) signAccess(
	ctx context.Context,
	flow string,
	user *UserInfo,
) (string, int, error) {
	set, err := s.assembler.Assemble(ctx, user)
	if err != nil {
		return "", 0, s.fail(ctx, flow, "error",
			fmt.Errorf("assemble claims: %w", err))
	}

	accessToken, err := s.signer.Sign(set, s.now().Add(s.accessTTL))
	if err != nil {
		return "", 0, s.fail(ctx, flow, "error",
			fmt.Errorf("sign access token: %w", err))
	}

	return accessToken, set.Len(), nil
}

func (s *Service) issued(
	ctx context.Context,
	flow string,
	user *UserInfo,
	accessToken string,
	claimCount int,
	slot refreshSlot,
) *TokenPair {
	if s.metrics != nil {
		s.metrics.TokenIssued(flow)
	}
	core.AddSpanEvent(ctx, "token.issued",
		attribute.String("flow", flow),
		attribute.Int("claims", claimCount),
	)
	s.logger.DebugContext(ctx, "token issued",
		"flow", flow,
		"user_id", user.ID,
		"claims", claimCount,
	)

	return &TokenPair{
		AccessToken:        accessToken,
		RefreshToken:       slot.token,
		RefreshTokenExpiry: slot.expiresAt,
	}
}

func (s *Service) newRefreshSlot() (refreshSlot, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return refreshSlot{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return refreshSlot{
		token:     token,
		hash:      core.HashToken(token),
		expiresAt: s.now().Add(s.refreshTTL).UTC(),
	}, nil
}

func (s *Service) fail(
	ctx context.Context,
	flow, reason string,
	err error,
) error {
	if s.metrics != nil {
		s.metrics.TokenFailure(flow, reason)
	}
	core.SetSpanError(ctx, err)

	if reason == "error" {
		s.logger.ErrorContext(ctx, "token request failed",
			"flow", flow,
			"error", err,
		)
	} else {
		s.logger.InfoContext(ctx, "token request rejected",
			"flow", flow,
			"reason", reason,
		)
	}

	return err
}
