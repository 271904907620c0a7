package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/astro-web3/helpdesk-client/internal/apierror"
	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/contract"
	"github.com/astro-web3/helpdesk-client/internal/domain/user"
	"github.com/astro-web3/helpdesk-client/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type logoutRequest struct {
	AllSessions bool `json:"allSessions,omitempty"`
}

func (s *service) Login(ctx context.Context, email, password string, remember bool) (*user.User, error) {
	body, err := s.postWithCSRF(ctx, "/auth/login",
		loginRequest{Email: email, Password: password}, client.AuthNone)
	if err != nil {
		return nil, err
	}

	u, bearer, err := parseAuthUser(body, "auth.login")
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		if writeErr := s.tokens.Write(ctx, bearer, remember); writeErr != nil {
			return nil, fmt.Errorf("persist credential: %w", writeErr)
		}
	}

	logger.InfoContext(ctx, "signed in", slog.String("user_id", u.ID))
	return u, nil
}

func (s *service) Register(ctx context.Context, email, password, name string) (*user.User, error) {
	body, err := s.postWithCSRF(ctx, "/auth/register",
		registerRequest{Email: email, Password: password, Name: name}, client.AuthNone)
	if err != nil {
		return nil, err
	}

	u, bearer, err := parseAuthUser(body, "auth.register")
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		if writeErr := s.tokens.Write(ctx, bearer, false); writeErr != nil {
			return nil, fmt.Errorf("persist credential: %w", writeErr)
		}
	}

	logger.InfoContext(ctx, "registered", slog.String("user_id", u.ID))
	return u, nil
}

func (s *service) Logout(ctx context.Context, allSessions bool) error {
	_, err := s.postWithCSRF(ctx, "/auth/logout",
		logoutRequest{AllSessions: allSessions}, client.AuthRequired)

	// The local credential and CSRF token never outlive the session,
	// even when the server already rejected it as unauthenticated.
	s.invalidateCSRF()
	if clearErr := s.tokens.Clear(ctx); clearErr != nil {
		logger.WarnContext(ctx, "failed to clear credential on logout",
			slog.String("error", clearErr.Error()))
	}

	if apiErr, ok := apierror.As(err); ok && apiErr.Kind == apierror.KindUnauthorized {
		return nil
	}
	return err
}

func (s *service) Refresh(ctx context.Context) error {
	body, err := s.postWithCSRF(ctx, "/auth/refresh", nil, client.AuthNone)
	if err != nil {
		return err
	}

	var wire struct {
		Authenticated bool   `json:"authenticated"`
		Token         string `json:"token"`
	}
	if unmarshalErr := json.Unmarshal(contract.Unwrap(body), &wire); unmarshalErr != nil {
		return apierror.NewKind(apierror.KindBadResponse,
			http.StatusInternalServerError, "refresh response is not valid JSON")
	}
	if !wire.Authenticated {
		return apierror.NewKind(apierror.KindUnauthorized,
			http.StatusUnauthorized, "session refresh rejected")
	}
	if wire.Token != "" {
		if writeErr := s.tokens.Refresh(ctx, wire.Token); writeErr != nil {
			return fmt.Errorf("persist refreshed credential: %w", writeErr)
		}
	}
	return nil
}

func (s *service) WhoAmI(ctx context.Context) (*user.User, error) {
	// Independent consumers ask for the identity at startup; one network
	// call serves all of them. The slot clears when the call settles, so
	// the next distinct call hits the network again.
	v, err, _ := s.flight.Do("auth.me", func() (any, error) {
		body, doErr := s.api.Do(ctx, http.MethodGet, "/auth/me", nil)
		if doErr != nil {
			return nil, doErr
		}
		return contract.ParseEnvelope[user.User](body, "auth.me")
	})
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

// parseAuthUser accepts both login/register response variants: the
// {authenticated, user, token} object or a bare user-like payload, either
// of which may sit inside a data envelope. The bearer token is optional;
// cookie-only deployments omit it.
func parseAuthUser(payload []byte, context string) (*user.User, string, error) {
	raw := contract.Unwrap(payload)

	var probe struct {
		Authenticated *bool           `json:"authenticated"`
		Token         string          `json:"token"`
		AccessToken   string          `json:"accessToken"`
		User          json.RawMessage `json:"user"`
	}
	bearer := ""
	if json.Unmarshal(raw, &probe) == nil {
		bearer = probe.Token
		if bearer == "" {
			bearer = probe.AccessToken
		}
		if len(probe.User) > 0 {
			u, err := contract.Parse[user.User](probe.User, context)
			return u, bearer, err
		}
	}

	u, err := contract.Parse[user.User](raw, context)
	return u, bearer, err
}
