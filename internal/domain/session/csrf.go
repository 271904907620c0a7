package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/astro-web3/helpdesk-client/internal/apierror"
	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/contract"
	"github.com/astro-web3/helpdesk-client/pkg/logger"
)

// CSRFHeader carries the double-submit token on state-changing calls.
const CSRFHeader = "X-CSRF-Token"

// codeCSRFInvalid is the server-asserted code marking a stale token. It is
// the only error code that triggers an automatic retry anywhere in this
// module, and that retry is capped at one attempt.
const codeCSRFInvalid = "CSRF_INVALID"

func (s *service) cachedCSRF() string {
	s.csrfMu.Lock()
	defer s.csrfMu.Unlock()
	return s.csrfToken
}

func (s *service) storeCSRF(tok string) {
	s.csrfMu.Lock()
	defer s.csrfMu.Unlock()
	s.csrfToken = tok
}

func (s *service) invalidateCSRF() {
	s.storeCSRF("")
}

// ensureCSRFToken returns the cached token or bootstraps one from
// GET /auth/csrf. Concurrent first callers collapse into a single
// bootstrap request.
func (s *service) ensureCSRFToken(ctx context.Context) (string, error) {
	if tok := s.cachedCSRF(); tok != "" {
		return tok, nil
	}

	v, err, _ := s.flight.Do("csrf.bootstrap", func() (any, error) {
		return s.bootstrapCSRF(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *service) bootstrapCSRF(ctx context.Context) (string, error) {
	body, err := s.api.Do(ctx, http.MethodGet, "/auth/csrf", nil,
		client.WithAuthMode(client.AuthNone))
	if err != nil {
		return "", err
	}

	var wire struct {
		CSRFToken string `json:"csrfToken"`
	}
	if unmarshalErr := json.Unmarshal(contract.Unwrap(body), &wire); unmarshalErr != nil || wire.CSRFToken == "" {
		// No token means the auth backend itself is broken; retrying the
		// bootstrap cannot help.
		return "", apierror.NewKind(apierror.KindBadResponse,
			http.StatusInternalServerError, "csrf bootstrap response missing token").
			WithDetails("csrfToken field absent from /auth/csrf response")
	}

	s.storeCSRF(wire.CSRFToken)
	return wire.CSRFToken, nil
}

// postWithCSRF issues a state-changing call with the token attached and
// cookie credentials included. A CSRF_INVALID rejection clears the cache,
// re-bootstraps once, and retries once with the fresh token; whatever that
// retry yields is final. Every other failure propagates untouched.
func (s *service) postWithCSRF(ctx context.Context, path string, payload any, mode client.AuthMode) ([]byte, error) {
	tok, err := s.ensureCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := s.postOnce(ctx, path, payload, mode, tok)
	apiErr, ok := apierror.As(err)
	if !ok || apiErr.Code != codeCSRFInvalid {
		return body, err
	}

	logger.WarnContext(ctx, "csrf token rejected as stale, re-bootstrapping",
		slog.String("path", path))
	s.invalidateCSRF()

	tok, err = s.ensureCSRFToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.postOnce(ctx, path, payload, mode, tok)
}

func (s *service) postOnce(ctx context.Context, path string, payload any, mode client.AuthMode, tok string) ([]byte, error) {
	return s.api.Do(ctx, http.MethodPost, path, payload,
		client.WithAuthMode(mode),
		client.WithHeader(CSRFHeader, tok))
}
