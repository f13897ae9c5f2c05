// AngelaMos | 2026
// catalog.go

// Package permission holds the static catalog of permission identifiers.
// Each identifier is both a Permission claim value and a policy name.
package permission

import (
	"strings"
)

const (
	GroupSystemAccess        = "SystemAccess"
	GroupManagementHierarchy = "ManagementHierarchy"
)

const (
	ServiceIdentity = "Identity"
	ServiceSystem   = "System"
)

const (
	FeatureUsers      = "Users"
	FeatureUserRoles  = "UserRoles"
	FeatureRoles      = "Roles"
	FeatureRoleClaims = "RoleClaims"
	FeatureStats      = "Stats"
)

const (
	ActionCreate = "Create"
	ActionRead   = "Read"
	ActionUpdate = "Update"
	ActionDelete = "Delete"
)

// NameFor builds the dotted Service.Feature.Action identifier.
func NameFor(service, feature, action string) string {
	return strings.Join([]string{service, feature, action}, ".")
}

var (
	UsersCreate = NameFor(ServiceIdentity, FeatureUsers, ActionCreate)
	UsersRead   = NameFor(ServiceIdentity, FeatureUsers, ActionRead)
	UsersUpdate = NameFor(ServiceIdentity, FeatureUsers, ActionUpdate)
	UsersDelete = NameFor(ServiceIdentity, FeatureUsers, ActionDelete)

	UserRolesRead   = NameFor(ServiceIdentity, FeatureUserRoles, ActionRead)
	UserRolesUpdate = NameFor(ServiceIdentity, FeatureUserRoles, ActionUpdate)

	RolesCreate = NameFor(ServiceIdentity, FeatureRoles, ActionCreate)
	RolesRead   = NameFor(ServiceIdentity, FeatureRoles, ActionRead)
	RolesUpdate = NameFor(ServiceIdentity, FeatureRoles, ActionUpdate)
	RolesDelete = NameFor(ServiceIdentity, FeatureRoles, ActionDelete)

	RoleClaimsRead   = NameFor(ServiceIdentity, FeatureRoleClaims, ActionRead)
	RoleClaimsUpdate = NameFor(ServiceIdentity, FeatureRoleClaims, ActionUpdate)

	StatsRead = NameFor(ServiceSystem, FeatureStats, ActionRead)
)

type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

var catalog = []Entry{
	{UsersCreate, "Register users", GroupManagementHierarchy},
	{UsersRead, "View users", GroupManagementHierarchy},
	{UsersUpdate, "Update users", GroupManagementHierarchy},
	{UsersDelete, "Deactivate users", GroupManagementHierarchy},
	{UserRolesRead, "View user roles", GroupManagementHierarchy},
	{UserRolesUpdate, "Assign user roles", GroupManagementHierarchy},
	{RolesCreate, "Create roles", GroupManagementHierarchy},
	{RolesRead, "View roles", GroupManagementHierarchy},
	{RolesUpdate, "Update roles", GroupManagementHierarchy},
	{RolesDelete, "Delete roles", GroupManagementHierarchy},
	{RoleClaimsRead, "View role permissions", GroupManagementHierarchy},
	{RoleClaimsUpdate, "Update role permissions", GroupManagementHierarchy},
	{StatsRead, "View system statistics", GroupSystemAccess},
}

var byName = func() map[string]Entry {
	m := make(map[string]Entry, len(catalog))
	for _, e := range catalog {
		m[e.Name] = e
	}
	return m
}()

// All returns every catalog entry in declaration order.
func All() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Admin is the permission set granted to the Admin role.
func Admin() []Entry {
	return All()
}

// Basic is the permission set granted to the Basic role: none.
func Basic() []Entry {
	return []Entry{}
}

func Lookup(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

func IsValid(name string) bool {
	_, ok := byName[name]
	return ok
}

func Names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
