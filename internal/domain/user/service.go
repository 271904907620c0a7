// Package user covers profile reads/updates, the staff directories, and
// the best-effort presence heartbeat.
package user

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/contract"
	"github.com/astro-web3/helpdesk-client/pkg/logger"
)

type UpdateParams struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type Service interface {
	Get(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, params UpdateParams) (*User, error)
	// Admins lists administrator accounts with presence counts.
	Admins(ctx context.Context) (*Directory, error)
	// SupportAgents lists support staff with presence counts.
	SupportAgents(ctx context.Context) (*Directory, error)
	// Heartbeat reports presence. Best effort: a failed heartbeat is
	// logged and swallowed, never surfaced to the caller.
	Heartbeat(ctx context.Context)
}

type service struct {
	api *client.Client
}

func NewService(api *client.Client) Service {
	return &service{api: api}
}

func (s *service) Get(ctx context.Context, id string) (*User, error) {
	body, err := s.api.Do(ctx, http.MethodGet, "/users/"+id, nil)
	if err != nil {
		return nil, err
	}
	return contract.ParseEnvelope[User](body, "user.get")
}

func (s *service) Update(ctx context.Context, id string, params UpdateParams) (*User, error) {
	body, err := s.api.Do(ctx, http.MethodPut, "/users/"+id, params)
	if err != nil {
		return nil, err
	}
	return contract.ParseEnvelope[User](body, "user.update")
}

func (s *service) Admins(ctx context.Context) (*Directory, error) {
	body, err := s.api.Do(ctx, http.MethodGet, "/auth/admins", nil)
	if err != nil {
		return nil, err
	}
	return parseDirectory(body, "user.admins")
}

func (s *service) SupportAgents(ctx context.Context) (*Directory, error) {
	body, err := s.api.Do(ctx, http.MethodGet, "/users/support", nil)
	if err != nil {
		return nil, err
	}
	return parseDirectory(body, "user.support")
}

func (s *service) Heartbeat(ctx context.Context) {
	if _, err := s.api.Do(ctx, http.MethodPost, "/users/presence/heartbeat", nil); err != nil {
		logger.WarnContext(ctx, "presence heartbeat failed",
			slog.String("error", err.Error()))
	}
}

type directoryWire struct {
	Users       []User `json:"users" validate:"dive"`
	OnlineCount *int   `json:"onlineCount"`
	TotalCount  *int   `json:"totalCount"`
}

func parseDirectory(payload []byte, context string) (*Directory, error) {
	raw := bytes.TrimSpace(contract.Unwrap(payload))
	// A bare array is the lightweight variant of the directory shape.
	if len(raw) > 0 && raw[0] == '[' {
		raw = append(append([]byte(`{"users":`), raw...), '}')
	}

	wire, err := contract.Parse[directoryWire](raw, context)
	if err != nil {
		return nil, err
	}

	dir := &Directory{
		Users:      wire.Users,
		TotalCount: len(wire.Users),
	}
	if dir.Users == nil {
		dir.Users = []User{}
		dir.TotalCount = 0
	}
	if wire.TotalCount != nil {
		dir.TotalCount = *wire.TotalCount
	}
	if wire.OnlineCount != nil {
		dir.OnlineCount = *wire.OnlineCount
	}
	return dir, nil
}
