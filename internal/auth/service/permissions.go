package service

import "github.com/aussiebroadwan/gatehouse/internal/auth/domain"

type (
	Resource string
	Action   string
)

const (
	ResourceUsers   Resource = "users"
	ResourceScreens Resource = "screens"

	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Screen keys guarded by the screens resource.
const (
	ScreenDashboard = "dashboard"
	ScreenMyAccount = "my-account"
)

// Target is what an action applies to. Only the field for the resource
// in question is read.
type Target struct {
	UserID    string
	ScreenKey string
}

// Predicate decides one (role, resource, action) cell.
type Predicate func(actor domain.SessionUser, target *Target) bool

func allow(domain.SessionUser, *Target) bool { return true }

func self(actor domain.SessionUser, t *Target) bool {
	return t != nil && t.UserID != "" && t.UserID == actor.ID
}

func unrestricted() map[Action]Predicate {
	return map[Action]Predicate{
		ActionView: allow, ActionCreate: allow, ActionUpdate: allow, ActionDelete: allow,
	}
}

// Permissions is the (role, resource, action) rule table. Missing cells
// deny.
type Permissions map[domain.Role]map[Resource]map[Action]Predicate

// DefaultPermissions returns the built-in rules: admins may do anything,
// users may manage themselves and view their account screen.
func DefaultPermissions() Permissions {
	return Permissions{
		domain.RoleAdmin: {
			ResourceUsers:   unrestricted(),
			ResourceScreens: unrestricted(),
		},
		domain.RoleUser: {
			ResourceScreens: {
				ActionView: func(_ domain.SessionUser, t *Target) bool {
					return t != nil && t.ScreenKey == ScreenMyAccount
				},
			},
			ResourceUsers: {
				ActionView:   self,
				ActionUpdate: self,
				ActionDelete: self,
			},
		},
	}
}

// Can reports whether actor may perform action on target.
func (p Permissions) Can(actor domain.SessionUser, resource Resource, action Action, target *Target) bool {
	check, ok := p[actor.Role][resource][action]
	if !ok || check == nil {
		return false
	}
	return check(actor, target)
}
