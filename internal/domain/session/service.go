// Package session orchestrates the authenticated session: login,
// registration, renewal, logout, and the who-am-i identity read, all
// wrapped in the double-submit CSRF protocol where the server demands it.
package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/domain/user"
	"github.com/astro-web3/helpdesk-client/internal/token"
)

type Service interface {
	// Login authenticates and stores the returned bearer credential.
	// remember selects the durable tier over the session tier.
	Login(ctx context.Context, email, password string, remember bool) (*user.User, error)

	// Register creates an account and stores the credential in the
	// session tier.
	Register(ctx context.Context, email, password, name string) (*user.User, error)

	// Logout ends the session. Local credential state is cleared even
	// when the server already considers the session gone.
	Logout(ctx context.Context, allSessions bool) error

	// Refresh renews the session, overwriting the stored credential in
	// whichever tier currently holds it.
	Refresh(ctx context.Context) error

	// WhoAmI fetches the current identity. Concurrent callers share one
	// underlying request.
	WhoAmI(ctx context.Context) (*user.User, error)
}

type service struct {
	api    *client.Client
	tokens *token.Store

	// csrfMu guards csrfToken, the single process-wide cached CSRF value.
	// The in-flight bootstrap and identity fetches dedup through flight;
	// singleflight drops each slot when the shared call settles, so a
	// failure never leaves a stuck slot behind.
	csrfMu    sync.Mutex
	csrfToken string
	flight    singleflight.Group
}

func NewService(api *client.Client, tokens *token.Store) Service {
	return &service{api: api, tokens: tokens}
}
