package user

import (
	"time"

	"github.com/astro-web3/helpdesk-client/internal/domain/access"
)

// User is the normalized identity entity. After contract validation every
// required field is present; optional fields are zero-valued when the
// server sent null or omitted them.
type User struct {
	ID        string      `json:"id" validate:"required"`
	Email     string      `json:"email"`
	Name      string      `json:"name" validate:"required"`
	Role      access.Role `json:"role" validate:"required,oneof=user support admin"`
	Online    bool        `json:"online"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Unknown is the sentinel substituted for the owner of lean list items
// that omit user detail. It is a placeholder, never a real account.
func Unknown() User {
	return User{ID: "unknown", Name: "Unknown User", Role: access.RoleUser}
}

// Directory is the normalized shape of the staff directory endpoints. The
// server may answer with this object or with a bare user array; a bare
// array normalizes to counts derived from its length.
type Directory struct {
	Users       []User `json:"users"`
	OnlineCount int    `json:"onlineCount"`
	TotalCount  int    `json:"totalCount"`
}
