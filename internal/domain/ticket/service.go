// Package ticket is the typed client surface for the ticket CRUD
// endpoints, routed through the policy client and the response contract.
package ticket

import (
	"context"
	"net/http"
	"strconv"

	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/contract"
)

// DefaultPageSize is the requested page size when the caller leaves
// ListParams.Limit unset; it is also the pageInfo fallback limit.
const DefaultPageSize = 20

type ListParams struct {
	Limit  int
	Cursor string
	Status Status
}

type CreateParams struct {
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority Priority `json:"priority,omitempty"`
}

type UpdateParams struct {
	Subject    *string   `json:"subject,omitempty"`
	Body       *string   `json:"body,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	Priority   *Priority `json:"priority,omitempty"`
	AssignedTo *string   `json:"assignedTo,omitempty"`
}

type Service interface {
	List(ctx context.Context, params ListParams) (*contract.Page[Ticket], error)
	Get(ctx context.Context, id string) (*Ticket, error)
	Create(ctx context.Context, params CreateParams) (*Ticket, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Ticket, error)
}

type service struct {
	api *client.Client
}

func NewService(api *client.Client) Service {
	return &service{api: api}
}

func (s *service) List(ctx context.Context, params ListParams) (*contract.Page[Ticket], error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	query := map[string]string{"limit": strconv.Itoa(limit)}
	if params.Cursor != "" {
		query["cursor"] = params.Cursor
	}
	if params.Status != "" {
		query["status"] = string(params.Status)
	}

	body, err := s.api.Do(ctx, http.MethodGet, "/tickets", nil, client.WithQuery(query))
	if err != nil {
		return nil, err
	}
	return contract.ParseListPage(body, "ticket.list", limit, leanListDefaults)
}

func (s *service) Get(ctx context.Context, id string) (*Ticket, error) {
	body, err := s.api.Do(ctx, http.MethodGet, "/tickets/"+id, nil)
	if err != nil {
		return nil, err
	}
	return contract.ParseEnvelope[Ticket](body, "ticket.get")
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Ticket, error) {
	body, err := s.api.Do(ctx, http.MethodPost, "/tickets", params)
	if err != nil {
		return nil, err
	}
	return contract.ParseEnvelope[Ticket](body, "ticket.create")
}

func (s *service) Update(ctx context.Context, id string, params UpdateParams) (*Ticket, error) {
	body, err := s.api.Do(ctx, http.MethodPut, "/tickets/"+id, params)
	if err != nil {
		return nil, err
	}
	return contract.ParseEnvelope[Ticket](body, "ticket.update")
}
