// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/identity-service/internal/core"
)

const tokenGeneratedMessage = "Token generated successfully"

type TokenIssuer interface {
	Login(ctx context.Context, userName, password string) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
}

type Handler struct {
	service   TokenIssuer
	validator *validator.Validate
}

func NewHandler(service TokenIssuer) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/token", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.Refresh)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	pair, err := h.service.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		writeTokenError(w, err)
		return
	}

	core.OKWithMessage(w, ToTokenResponse(pair), tokenGeneratedMessage)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Token, req.RefreshToken)
	if err != nil {
		writeTokenError(w, err)
		return
	}

	core.OKWithMessage(w, ToTokenResponse(pair), tokenGeneratedMessage)
}

func writeTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.NewAppError(
			err,
			"Invalid username or password",
			http.StatusUnauthorized,
			"INVALID_CREDENTIALS",
		))
	case errors.Is(err, ErrInactiveAccount):
		core.JSONError(w, core.NewAppError(
			err,
			"User is inactive. Contact admin",
			http.StatusForbidden,
			"ACCOUNT_INACTIVE",
		))
	case errors.Is(err, ErrEmailNotConfirmed):
		core.JSONError(w, core.NewAppError(
			err,
			"Email is not confirmed",
			http.StatusForbidden,
			"EMAIL_NOT_CONFIRMED",
		))
	case errors.Is(err, ErrUserNotFound):
		core.JSONError(w, core.NewAppError(
			err,
			"User does not exist",
			http.StatusUnauthorized,
			"USER_NOT_FOUND",
		))
	case errors.Is(err, ErrInvalidAccessToken):
		core.JSONError(w, core.NewAppError(
			err,
			"Invalid token",
			http.StatusUnauthorized,
			"TOKEN_INVALID",
		))
	case errors.Is(err, ErrInvalidRefreshToken):
		core.JSONError(w, core.NewAppError(
			err,
			"Invalid token provided",
			http.StatusUnauthorized,
			"REFRESH_TOKEN_INVALID",
		))
	default:
		core.InternalServerError(w, err)
	}
}
