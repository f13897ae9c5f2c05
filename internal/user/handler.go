// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/middleware"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts user management under /users. Every route needs
// an authenticated caller holding the route's permission.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	authorizer middleware.PermissionAuthorizer,
) {
	can := func(name string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(authorizer, name)
	}

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.With(can(permission.UsersCreate)).Post("/register", h.Register)
		r.With(can(permission.UsersRead)).Get("/all", h.ListUsers)
		r.With(can(permission.UsersRead)).Get("/by-email", h.GetUserByEmail)
		r.With(can(permission.UsersRead)).Get("/{userID}", h.GetUser)
		r.With(can(permission.UsersUpdate)).Put("/", h.UpdateUser)
		r.With(can(permission.UsersUpdate)).Put("/change-password", h.ChangePassword)
		r.With(can(permission.UsersUpdate)).Put("/change-status", h.ChangeStatus)
		r.With(can(permission.UserRolesRead)).Get("/{userID}/roles", h.GetUserRoles)
		r.With(can(permission.UserRolesUpdate)).Put("/user-roles", h.UpdateUserRoles)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "User registered successfully.",
		Data:    ToUserResponse(user),
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := h.validator.Var(email, "required,email"); err != nil {
		core.BadRequest(w, "a valid email query parameter is required")
		return
	}

	user, err := h.service.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), req)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OKWithMessage(w, ToUserResponse(user), "User updated successfully.")
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), req); err != nil {
		writeUserError(w, err)
		return
	}

	core.Message(w, "Password changed successfully.")
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeUserStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ChangeStatus(r.Context(), req); err != nil {
		writeUserError(w, err)
		return
	}

	status := "deactivated"
	if req.ActivateOrDeactivate {
		status = "activated"
	}
	core.Message(w, "User "+status+" successfully.")
}

func (h *Handler) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.GetUserRoles(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserRoleViews(roles))
}

func (h *Handler) UpdateUserRoles(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRolesRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UpdateUserRoles(r.Context(), req); err != nil {
		writeUserError(w, err)
		return
	}

	core.Message(w, "User roles updated successfully.")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.NewAppError(
			err, "User not found.", http.StatusNotFound, "NOT_FOUND",
		))
	case errors.Is(err, ErrEmailRegistered):
		core.JSONError(w, core.NewAppError(
			err,
			"Email address is already registered.",
			http.StatusConflict,
			"EMAIL_REGISTERED",
		))
	case errors.Is(err, ErrUserNameTaken):
		core.JSONError(w, core.NewAppError(
			err,
			"User name is already taken.",
			http.StatusConflict,
			"USERNAME_TAKEN",
		))
	case errors.Is(err, ErrProtectedUser):
		core.JSONError(w, core.NewAppError(
			err,
			"Modifying roles for this user is not allowed.",
			http.StatusForbidden,
			"PROTECTED_USER",
		))
	case errors.Is(err, ErrIncorrectPassword):
		core.JSONError(w, core.NewAppError(
			err,
			"Incorrect password.",
			http.StatusBadRequest,
			"INCORRECT_PASSWORD",
		))
	case errors.Is(err, ErrUnknownRole):
		core.JSONError(w, core.NewAppError(
			err,
			"One or more roles do not exist.",
			http.StatusBadRequest,
			"UNKNOWN_ROLE",
		))
	default:
		core.InternalServerError(w, err)
	}
}
