package access

// rules is the static table behind every route guard and conditional UI
// affordance. It is enumerated once at process start and never mutated.
var rules = map[Key]Rule{
	KeyRouteDashboard: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
	},
	KeyRouteTickets: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
	},
	// End users may only open their own tickets; staff see every ticket.
	KeyRouteTicketByID: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
		Condition: func(ctx Context, role Role) bool {
			if role == RoleUser {
				return ctx.ActorUserID != "" && ctx.ActorUserID == ctx.TicketOwnerID
			}
			return true
		},
	},
	// A non-staff role may only view its own profile id.
	KeyRouteUserByID: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
		Condition:    selfUnlessStaff,
	},
	KeyRouteAdmin: {
		AllowedRoles: []Role{RoleAdmin},
	},
	KeyNavAdminTab: {
		AllowedRoles: StaffRoles,
	},
	KeyTicketAssign: {
		AllowedRoles: StaffRoles,
	},
	KeyTicketClose: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
		Condition: func(ctx Context, role Role) bool {
			if role == RoleUser {
				return ctx.ActorUserID != "" && ctx.ActorUserID == ctx.TicketOwnerID
			}
			return true
		},
	},
	KeyUserEdit: {
		AllowedRoles: []Role{RoleUser, RoleSupport, RoleAdmin},
		Condition:    selfUnlessStaff,
	},
}

func selfUnlessStaff(ctx Context, role Role) bool {
	if role == RoleUser {
		return ctx.ActorUserID != "" && ctx.ActorUserID == ctx.TargetUserID
	}
	return true
}
