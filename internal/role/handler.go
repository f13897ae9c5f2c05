// AngelaMos | 2026
// handler.go

package role

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	authorizer middleware.PermissionAuthorizer,
) {
	can := func(name string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(authorizer, name)
	}

	r.Route("/roles", func(r chi.Router) {
		r.Use(authenticator)

		r.With(can(permission.RolesCreate)).Post("/", h.Create)
		r.With(can(permission.RolesRead)).Get("/all", h.List)
		r.With(can(permission.RolesUpdate)).Put("/", h.Update)
		r.With(can(permission.RolesRead)).Get("/{roleID}", h.Get)
		r.With(can(permission.RolesDelete)).Delete("/{roleID}", h.Delete)
		r.With(can(permission.RoleClaimsRead)).Get("/permissions/{roleID}", h.Permissions)
		r.With(can(permission.RoleClaimsUpdate)).Put("/update-permissions", h.UpdatePermissions)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeRoleError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "Role created successfully",
		Data:    ToRoleResponse(role),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		writeRoleError(w, err)
		return
	}

	core.OK(w, ToRoleResponseList(roles))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		writeRoleError(w, err)
		return
	}

	core.OK(w, ToRoleResponse(role))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.service.Update(r.Context(), req)
	if err != nil {
		writeRoleError(w, err)
		return
	}

	core.OKWithMessage(w, ToRoleResponse(role), "Role updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		writeRoleError(w, err)
		return
	}

	core.Message(w, "Role deleted successfully")
}

func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Permissions(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		writeRoleError(w, err)
		return
	}

	core.OK(w, ToPermissionsResponse(view))
}

func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var req UpdatePermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UpdatePermissions(r.Context(), req); err != nil {
		writeRoleError(w, err)
		return
	}

	core.Message(w, "Role permissions updated successfully")
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

func writeRoleError(w http.ResponseWriter, err error) {
	var inUse *InUseError

	switch {
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.NewAppError(
			err, "Role not found", http.StatusNotFound, "NOT_FOUND",
		))
	case errors.Is(err, ErrRoleExists):
		core.JSONError(w, core.NewAppError(
			err, "Role already exists", http.StatusConflict, "ROLE_EXISTS",
		))
	case errors.Is(err, ErrAdminUpdate):
		core.JSONError(w, protectedRole(err, "Cannot update Admin role"))
	case errors.Is(err, ErrAdminDelete):
		core.JSONError(w, protectedRole(err, "Cannot delete Admin role"))
	case errors.Is(err, ErrAdminPermissions):
		core.JSONError(w, protectedRole(err, "Cannot update permissions for Admin role"))
	case errors.As(err, &inUse):
		core.JSONError(w, core.NewAppError(
			err,
			"Role: "+inUse.Name+" is currently assigned to a user",
			http.StatusConflict,
			"ROLE_IN_USE",
		))
	case errors.Is(err, ErrUnknownPermission):
		core.JSONError(w, core.NewAppError(
			err,
			"One or more permissions are not recognised",
			http.StatusBadRequest,
			"UNKNOWN_PERMISSION",
		))
	default:
		core.InternalServerError(w, err)
	}
}

func protectedRole(err error, message string) *core.AppError {
	return core.NewAppError(err, message, http.StatusForbidden, "PROTECTED_ROLE")
}
