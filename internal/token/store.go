// Package token owns the bearer credential: two interchangeable
// persistence tiers, claims decoding, and expiry policy. Nothing outside
// this package parses the raw token.
package token

import (
	"context"
	"fmt"
)

// Tier is one persistence backend for the raw bearer string. Get returns
// "" when no token is stored.
type Tier interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, raw string) error
	Clear(ctx context.Context) error
}

// Credential pairs the raw bearer string with its decoded claims. Claims
// is nil when the payload could not be decoded; the raw token is still
// usable as an opaque bearer in that case.
type Credential struct {
	Raw    string
	Claims *Claims
}

// Store manages the credential across a durable tier and a session-scoped
// tier. Invariant: at most one tier holds a token at any time.
type Store struct {
	durable Tier
	session Tier
}

func NewStore(durable, session Tier) *Store {
	return &Store{durable: durable, session: session}
}

// Read returns the stored credential, or (nil, nil) when absent. The
// session tier is consulted first; under the exclusivity invariant only
// one tier can answer.
func (s *Store) Read(ctx context.Context) (*Credential, error) {
	for _, tier := range []Tier{s.session, s.durable} {
		raw, err := tier.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("token store read: %w", err)
		}
		if raw == "" {
			continue
		}
		cred := &Credential{Raw: raw}
		cred.Claims, _ = Decode(raw)
		return cred, nil
	}
	return nil, nil
}

// Write stores raw in the requested tier and clears the other, keeping
// exactly one tier populated.
func (s *Store) Write(ctx context.Context, raw string, persistent bool) error {
	target, other := s.session, s.durable
	if persistent {
		target, other = s.durable, s.session
	}
	if err := other.Clear(ctx); err != nil {
		return fmt.Errorf("token store write: clear other tier: %w", err)
	}
	if err := target.Set(ctx, raw); err != nil {
		return fmt.Errorf("token store write: %w", err)
	}
	return nil
}

// Refresh overwrites the token in whichever tier currently holds one, so a
// session renewal keeps the caller's original persistence choice. With no
// token stored anywhere it falls back to the session tier.
func (s *Store) Refresh(ctx context.Context, raw string) error {
	durableRaw, err := s.durable.Get(ctx)
	if err != nil {
		return fmt.Errorf("token store refresh: %w", err)
	}
	return s.Write(ctx, raw, durableRaw != "")
}

// Clear wipes both tiers.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("token store clear: %w", err)
	}
	if err := s.durable.Clear(ctx); err != nil {
		return fmt.Errorf("token store clear: %w", err)
	}
	return nil
}
