// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"time"
)

const (
	QueueUserRegistered         = "identity.user.registered"
	QueueRolePermissionsUpdated = "identity.role.permissions_updated"
)

// Queues lists every queue the service publishes to.
var Queues = []string{
	QueueUserRegistered,
	QueueRolePermissionsUpdated,
}

type UserRegistered struct {
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

type RolePermissionsUpdated struct {
	RoleID      string    `json:"roleId"`
	RoleName    string    `json:"roleName"`
	Permissions []string  `json:"permissions"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher delivers domain events. Delivery is best effort: failures are
// logged by the implementation and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, queue string, event any)
}

type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}
