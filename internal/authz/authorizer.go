// AngelaMos | 2026
// authorizer.go

package authz

import (
	"github.com/carterperez-dev/identity-service/internal/claims"
)

type DecisionRecorder interface {
	AuthzDecision(allowed bool)
}

// Authorizer resolves a permission name per call and checks it against the
// caller's claims.
type Authorizer struct {
	resolver Resolver
	handler  Handler
	recorder DecisionRecorder
}

func NewAuthorizer(recorder DecisionRecorder) *Authorizer {
	return &Authorizer{
		resolver: NewResolver(),
		handler:  NewHandler(),
		recorder: recorder,
	}
}

func (a *Authorizer) Authorize(set *claims.Set, permission string) error {
	policy, err := a.resolver.GetPolicy(permission)
	if err != nil {
		a.record(false)
		return err
	}

	err = a.handler.Authorize(set, policy)
	a.record(err == nil)
	return err
}

func (a *Authorizer) record(allowed bool) {
	if a.recorder != nil {
		a.recorder.AuthzDecision(allowed)
	}
}
