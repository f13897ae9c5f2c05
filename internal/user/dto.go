// AngelaMos | 2026
// dto.go

package user

import (
	"strings"
	"time"
)

type RegisterRequest struct {
	FirstName        string  `json:"firstName"        validate:"required,min=1,max=100"`
	LastName         string  `json:"lastName"         validate:"required,min=1,max=100"`
	UserName         string  `json:"userName"         validate:"required,min=3,max=256"`
	Email            string  `json:"email"            validate:"required,email,max=256"`
	Password         string  `json:"password"         validate:"required,min=8,max=128"`
	ConfirmPassword  string  `json:"confirmPassword"  validate:"required,eqfield=Password"`
	PhoneNumber      *string `json:"phoneNumber"      validate:"omitempty,max=32"`
	ActivateUser     bool    `json:"activateUser"`
	AutoConfirmEmail bool    `json:"autoConfirmEmail"`
}

type UpdateUserRequest struct {
	UserID      string  `json:"userId"      validate:"required,uuid"`
	FirstName   string  `json:"firstName"   validate:"required,min=1,max=100"`
	LastName    string  `json:"lastName"    validate:"required,min=1,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
}

type ChangePasswordRequest struct {
	UserID             string `json:"userId"             validate:"required,uuid"`
	CurrentPassword    string `json:"currentPassword"    validate:"required,max=128"`
	NewPassword        string `json:"newPassword"        validate:"required,min=8,max=128"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type ChangeUserStatusRequest struct {
	UserID               string `json:"userId"               validate:"required,uuid"`
	ActivateOrDeactivate bool   `json:"activateOrDeactivate"`
}

type UserRoleView struct {
	RoleName         string `json:"roleName"         validate:"required"`
	RoleDescription  string `json:"roleDescription"`
	IsAssignedToUser bool   `json:"isAssignedToUser"`
}

type UpdateUserRolesRequest struct {
	UserID string         `json:"userId" validate:"required,uuid"`
	Roles  []UserRoleView `json:"roles"  validate:"dive"`
}

// AssignedRoleNames returns the names flagged as assigned, in request
// order. Role names compare case-insensitively, so repeats differing only
// in case are dropped.
func (r UpdateUserRolesRequest) AssignedRoleNames() []string {
	seen := make(map[string]struct{}, len(r.Roles))
	names := make([]string, 0, len(r.Roles))
	for _, role := range r.Roles {
		if !role.IsAssignedToUser {
			continue
		}
		key := strings.ToLower(role.RoleName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, role.RoleName)
	}
	return names
}

type UserResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	UserName       string    `json:"userName"`
	Email          string    `json:"email"`
	PhoneNumber    *string   `json:"phoneNumber"`
	IsActive       bool      `json:"isActive"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		UserName:       u.UserName,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		IsActive:       u.IsActive,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func ToUserRoleViews(assignments []RoleAssignment) []UserRoleView {
	views := make([]UserRoleView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, UserRoleView{
			RoleName:         a.RoleName,
			RoleDescription:  a.RoleDescription,
			IsAssignedToUser: a.IsAssignedToUser,
		})
	}
	return views
}
