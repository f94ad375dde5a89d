// Package authz decides whether an authenticated actor may perform an action.
package authz

const (
	ActionDayCloseSubmit = "dayclose:submit"
	ActionReportsRead    = "reports:read"
	ActionPatientsCreate = "patients:create"
	ActionBillingRead    = "billing:read"
	ActionBillingRemind  = "billing:remind"

	wildcard = "*"
)

const (
	RoleAdmin     = "admin"
	RoleFrontDesk = "frontdesk"
	RoleBilling   = "billing"
)

type Actor struct {
	ID       int64
	Username string
	Role     string
}

type Authorizer interface {
	IsAuthorized(actor Actor, action string) bool
}

// RolePolicy maps a role to the actions it grants. "*" grants everything.
type RolePolicy map[string][]string

func DefaultPolicy() RolePolicy {
	return RolePolicy{
		RoleAdmin: {wildcard},
		RoleFrontDesk: {
			ActionDayCloseSubmit,
			ActionReportsRead,
			ActionPatientsCreate,
		},
		RoleBilling: {
			ActionBillingRead,
			ActionBillingRemind,
			ActionReportsRead,
		},
	}
}

func (p RolePolicy) IsAuthorized(actor Actor, action string) bool {
	for _, granted := range p[actor.Role] {
		if granted == wildcard || granted == action {
			return true
		}
	}
	return false
}
