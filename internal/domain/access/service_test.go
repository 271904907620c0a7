package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astro-web3/helpdesk-client/internal/domain/access"
)

var allRoles = []access.Role{access.RoleUser, access.RoleSupport, access.RoleAdmin}

// contexts that should never be able to flip a role-level denial.
var probeContexts = []access.Context{
	{},
	{ActorUserID: "u1", TargetUserID: "u1", TicketOwnerID: "u1"},
	{ActorUserID: "u1", TargetUserID: "u2", TicketOwnerID: "u2"},
	{ActorUserID: "", TargetUserID: "u1"},
}

func TestCanAccess_RoleOutsideAllowedSetAlwaysDenied(t *testing.T) {
	for _, key := range access.Keys() {
		allowed := access.AllowedRoles(key)
		allowedSet := make(map[access.Role]bool, len(allowed))
		for _, role := range allowed {
			allowedSet[role] = true
		}

		for _, role := range allRoles {
			if allowedSet[role] {
				continue
			}
			for _, ctx := range probeContexts {
				assert.Falsef(t, access.CanAccess(key, role, ctx),
					"key %s must deny role %s for every context", key, role)
			}
		}
	}
}

func TestCanAccess_AbsentRoleDenied(t *testing.T) {
	for _, key := range access.Keys() {
		for _, ctx := range probeContexts {
			assert.Falsef(t, access.CanAccess(key, "", ctx),
				"key %s must deny an absent role", key)
		}
	}
}

func TestCanAccess_UnknownKeyDenied(t *testing.T) {
	for _, role := range allRoles {
		assert.False(t, access.CanAccess("route.doesNotExist", role, access.Context{}))
	}
}

func TestCanAccess_UserProfileSelfOnly(t *testing.T) {
	self := access.Context{ActorUserID: "u1", TargetUserID: "u1"}
	other := access.Context{ActorUserID: "u1", TargetUserID: "u2"}

	assert.True(t, access.CanAccess(access.KeyRouteUserByID, access.RoleUser, self))
	assert.False(t, access.CanAccess(access.KeyRouteUserByID, access.RoleUser, other))
	assert.True(t, access.CanAccess(access.KeyRouteUserByID, access.RoleAdmin, other))
	assert.True(t, access.CanAccess(access.KeyRouteUserByID, access.RoleSupport, other))
}

func TestCanAccess_TicketDetailOwnerOnlyForEndUsers(t *testing.T) {
	own := access.Context{ActorUserID: "u1", TicketOwnerID: "u1"}
	foreign := access.Context{ActorUserID: "u1", TicketOwnerID: "u9"}

	assert.True(t, access.CanAccess(access.KeyRouteTicketByID, access.RoleUser, own))
	assert.False(t, access.CanAccess(access.KeyRouteTicketByID, access.RoleUser, foreign))
	assert.True(t, access.CanAccess(access.KeyRouteTicketByID, access.RoleSupport, foreign))
}

func TestCanAccess_RuleWithoutConditionAllowsMembers(t *testing.T) {
	// nav.adminTab has no condition: membership alone decides.
	assert.True(t, access.CanAccess(access.KeyNavAdminTab, access.RoleSupport, access.Context{}))
	assert.True(t, access.CanAccess(access.KeyNavAdminTab, access.RoleAdmin, access.Context{}))
	assert.False(t, access.CanAccess(access.KeyNavAdminTab, access.RoleUser, access.Context{}))
}

func TestCanAccess_AdminRouteIsAdminOnly(t *testing.T) {
	assert.True(t, access.CanAccess(access.KeyRouteAdmin, access.RoleAdmin, access.Context{}))
	assert.False(t, access.CanAccess(access.KeyRouteAdmin, access.RoleSupport, access.Context{}))
	assert.False(t, access.CanAccess(access.KeyRouteAdmin, access.RoleUser, access.Context{}))
}

func TestCanAccess_Deterministic(t *testing.T) {
	ctx := access.Context{ActorUserID: "u1", TargetUserID: "u2"}
	first := access.CanAccess(access.KeyRouteUserByID, access.RoleUser, ctx)
	for range 100 {
		assert.Equal(t, first, access.CanAccess(access.KeyRouteUserByID, access.RoleUser, ctx))
	}
}

func TestIsStaff(t *testing.T) {
	assert.False(t, access.IsStaff(access.RoleUser))
	assert.True(t, access.IsStaff(access.RoleSupport))
	assert.True(t, access.IsStaff(access.RoleAdmin))
}
