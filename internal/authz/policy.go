// AngelaMos | 2026
// policy.go

// Package authz turns permission identifiers into policies on demand and
// evaluates them against a caller's claims.
//
// No policy is registered ahead of time. Any string is accepted as a policy
// name; one that no token carries simply cannot be satisfied.
package authz

import (
	"errors"
	"fmt"

	"github.com/carterperez-dev/identity-service/internal/claims"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrEmptyPolicyName  = errors.New("policy name is empty")
)

// Requirement is satisfied by a claim with exactly this type and value.
type Requirement struct {
	ClaimType  string
	ClaimValue string
}

func (r Requirement) String() string {
	return r.ClaimType + "=" + r.ClaimValue
}

type Policy struct {
	Name         string
	Requirements []Requirement
}

// Resolver maps a policy name to a Policy. It holds no state and never
// consults the permission catalog.
type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

// GetPolicy synthesizes a policy requiring a Permission claim equal to name.
func (Resolver) GetPolicy(name string) (Policy, error) {
	if name == "" {
		return Policy{}, ErrEmptyPolicyName
	}

	return Policy{
		Name: name,
		Requirements: []Requirement{{
			ClaimType:  claims.TypePermission,
			ClaimValue: name,
		}},
	}, nil
}

// Handler evaluates policies. Matching is exact and case-sensitive with no
// wildcards.
type Handler struct{}

func NewHandler() Handler {
	return Handler{}
}

// Authorize returns nil when every requirement of p is met by set.
func (Handler) Authorize(set *claims.Set, p Policy) error {
	if len(p.Requirements) == 0 {
		return fmt.Errorf("policy %q: %w", p.Name, ErrPermissionDenied)
	}

	for _, req := range p.Requirements {
		if !set.Has(req.ClaimType, req.ClaimValue) {
			return fmt.Errorf("policy %q: %w", p.Name, ErrPermissionDenied)
		}
	}

	return nil
}
