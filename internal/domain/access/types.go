package access

// Role is the actor's role as asserted by the server in the bearer claims.
type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// StaffRoles are the roles with back-office access.
var StaffRoles = []Role{RoleSupport, RoleAdmin}

// Key identifies one guarded route or UI affordance.
type Key string

const (
	KeyRouteDashboard  Key = "route.dashboard"
	KeyRouteTickets    Key = "route.tickets"
	KeyRouteTicketByID Key = "route.ticketById"
	KeyRouteUserByID   Key = "route.userById"
	KeyRouteAdmin      Key = "route.admin"
	KeyNavAdminTab     Key = "nav.adminTab"
	KeyTicketAssign    Key = "ticket.assign"
	KeyTicketClose     Key = "ticket.close"
	KeyUserEdit        Key = "user.edit"
)

// Context carries the only facts a Condition may read. Conditions never
// reach for ambient state, so the same inputs always yield the same
// decision and the server can re-verify with identical logic.
type Context struct {
	ActorUserID   string
	TargetUserID  string
	TicketOwnerID string
}

// Condition refines a role-level allow with per-resource policy.
type Condition func(ctx Context, role Role) bool

// Rule is immutable once registered. A role outside AllowedRoles is denied
// regardless of Condition.
type Rule struct {
	AllowedRoles []Role
	Condition    Condition
}

func (r Rule) allowsRole(role Role) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
