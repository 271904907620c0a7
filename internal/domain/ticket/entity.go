package ticket

import (
	"time"

	"github.com/astro-web3/helpdesk-client/internal/domain/user"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusClosed   Status = "closed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Ticket is the normalized ticket entity. Detail payloads must carry the
// creator and creation time; list payloads may omit them and receive the
// documented sentinels instead (see leanListDefaults).
type Ticket struct {
	ID         string    `json:"id" validate:"required"`
	Subject    string    `json:"subject" validate:"required"`
	Body       string    `json:"body"`
	Status     Status    `json:"status" validate:"required,oneof=open pending resolved closed"`
	Priority   Priority  `json:"priority" validate:"required,oneof=low medium high urgent"`
	CreatedBy  user.User `json:"createdBy" validate:"required"`
	AssignedTo string    `json:"assignedTo"`
	CreatedAt  time.Time `json:"createdAt" validate:"required"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Normalize collapses omitted optional fields to the single absent
// representation before validation runs.
func (t *Ticket) Normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// leanListDefaults fills what list endpoints legitimately omit: the
// creator collapses to the placeholder unknown user and the creation time
// to the epoch. Anything else missing remains a contract violation.
func leanListDefaults(t *Ticket) {
	if t.CreatedBy.ID == "" {
		t.CreatedBy = user.Unknown()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Unix(0, 0).UTC()
	}
}
