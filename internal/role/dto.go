// AngelaMos | 2026
// dto.go

package role

import (
	"time"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

type CreateRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=256"`
	Description string `json:"description" validate:"max=1024"`
}

type UpdateRoleRequest struct {
	RoleID      string `json:"roleId"      validate:"required,uuid"`
	Name        string `json:"name"        validate:"required,min=1,max=256"`
	Description string `json:"description" validate:"max=1024"`
}

type RoleClaimView struct {
	RoleID           string `json:"roleId"`
	ClaimType        string `json:"claimType"`
	ClaimValue       string `json:"claimValue"       validate:"required"`
	Description      string `json:"description"`
	Group            string `json:"group"`
	IsAssignedToRole bool   `json:"isAssignedToRole"`
}

type UpdatePermissionsRequest struct {
	RoleID     string          `json:"roleId"     validate:"required,uuid"`
	RoleClaims []RoleClaimView `json:"roleClaims" validate:"dive"`
}

// AssignedValues returns the claim values flagged as assigned, in request
// order with repeats collapsed.
func (r UpdatePermissionsRequest) AssignedValues() []string {
	seen := make(map[string]struct{}, len(r.RoleClaims))
	values := make([]string, 0, len(r.RoleClaims))
	for _, rc := range r.RoleClaims {
		if !rc.IsAssignedToRole {
			continue
		}
		if _, dup := seen[rc.ClaimValue]; dup {
			continue
		}
		seen[rc.ClaimValue] = struct{}{}
		values = append(values, rc.ClaimValue)
	}
	return values
}

type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PermissionsResponse struct {
	Role       RoleResponse    `json:"role"`
	RoleClaims []RoleClaimView `json:"roleClaims"`
}

func ToRoleResponse(r *Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToRoleResponseList(roles []Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, ToRoleResponse(&roles[i]))
	}
	return out
}

// PermissionsView holds the role and the permission claims it currently
// holds, keyed by value.
type PermissionsView struct {
	Role     *Role
	Assigned map[string]Claim
}

func ToPermissionsResponse(v *PermissionsView) PermissionsResponse {
	entries := permission.All()
	views := make([]RoleClaimView, 0, len(entries))
	for _, e := range entries {
		view := RoleClaimView{
			RoleID:      v.Role.ID,
			ClaimType:   claims.TypePermission,
			ClaimValue:  e.Name,
			Description: e.Description,
			Group:       e.Group,
		}
		if held, ok := v.Assigned[e.Name]; ok {
			view.IsAssignedToRole = true
			if held.Description != "" {
				view.Description = held.Description
			}
			if held.Group != "" {
				view.Group = held.Group
			}
		}
		views = append(views, view)
	}

	return PermissionsResponse{
		Role:       ToRoleResponse(v.Role),
		RoleClaims: views,
	}
}
