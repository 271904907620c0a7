// Package client enforces per-request policy for the helpdesk API:
// authorization mode, deadline, cache policy, and conversion of every
// failure into the closed error taxonomy.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/astro-web3/helpdesk-client/internal/apierror"
	"github.com/astro-web3/helpdesk-client/internal/token"
	httpclient "github.com/astro-web3/helpdesk-client/pkg/http"
	"github.com/astro-web3/helpdesk-client/pkg/logger"
)

// DefaultTimeout bounds a single request unless the caller overrides it.
const DefaultTimeout = 10 * time.Second

// CachePolicyNoStore is the default cache policy for GET requests.
const CachePolicyNoStore = "no-store"

type AuthMode int

const (
	// AuthRequired attaches the stored bearer credential and fails fast
	// with 401 when none is available. The default.
	AuthRequired AuthMode = iota
	// AuthNone sends the request without a bearer credential.
	AuthNone
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	timeout time.Duration
	tokens  *token.Store
}

func New(cfg Config, tokens *token.Store) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
		tokens:  tokens,
	}
}

type requestOptions struct {
	authMode AuthMode
	timeout  time.Duration
	cache    string
	cacheSet bool
	headers  map[string]string
	query    map[string]string
}

type Option func(*requestOptions)

func WithAuthMode(mode AuthMode) Option {
	return func(o *requestOptions) {
		o.authMode = mode
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *requestOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithCachePolicy sets an explicit Cache-Control directive. Setting it
// suppresses the implicit no-store default on GET; an empty policy means
// "send no cache header at all".
func WithCachePolicy(policy string) Option {
	return func(o *requestOptions) {
		o.cache = policy
		o.cacheSet = true
	}
}

func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

func WithQuery(params map[string]string) Option {
	return func(o *requestOptions) {
		o.query = params
	}
}

// Do issues one request and returns the raw response body. Every failure
// is a *apierror.Error: absent credential (before any network I/O),
// deadline expiry, transport faults, and non-2xx responses.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...Option) ([]byte, error) {
	ro := requestOptions{authMode: AuthRequired, timeout: c.timeout}
	for _, opt := range opts {
		opt(&ro)
	}

	reqOpts := []httpclient.RequestOption{
		httpclient.WithHeader("X-Request-ID", uuid.NewString()),
	}

	if ro.authMode == AuthRequired {
		cred, err := c.tokens.Read(ctx)
		if err != nil {
			// A tier that cannot be read cannot authenticate the caller.
			logger.WarnContext(ctx, "token store read failed, treating credential as absent",
				slog.String("error", err.Error()))
			cred = nil
		}
		if cred == nil {
			return nil, apierror.NewKind(apierror.KindUnauthorized,
				http.StatusUnauthorized, "no bearer credential available")
		}
		if token.IsExpired(cred.Claims) {
			if clearErr := c.tokens.Clear(ctx); clearErr != nil {
				logger.WarnContext(ctx, "failed to clear expired credential",
					slog.String("error", clearErr.Error()))
			}
			return nil, apierror.NewKind(apierror.KindUnauthorized,
				http.StatusUnauthorized, "bearer credential expired")
		}
		reqOpts = append(reqOpts, httpclient.WithAuthToken(cred.Raw))
	}

	// GET defaults to no-store so intermediaries never serve stale reads.
	// Mutations get no implicit cache header: the transport default
	// governs unless the caller states otherwise.
	if method == http.MethodGet && !ro.cacheSet {
		ro.cache = CachePolicyNoStore
	}
	if ro.cache != "" {
		reqOpts = append(reqOpts, httpclient.WithHeader("Cache-Control", ro.cache))
	}

	for key, value := range ro.headers {
		reqOpts = append(reqOpts, httpclient.WithHeader(key, value))
	}
	if len(ro.query) > 0 {
		reqOpts = append(reqOpts, httpclient.WithQueryParams(ro.query))
	}
	if body != nil {
		reqOpts = append(reqOpts, httpclient.WithBody(body))
	}

	ctx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	resp, err := httpclient.Request(ctx, method, c.baseURL+path, reqOpts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apierror.NewKind(apierror.KindTimeout,
				http.StatusRequestTimeout, method+" "+path+" timed out")
		}
		return nil, apierror.NewKind(apierror.KindNetworkError,
			http.StatusServiceUnavailable, "transport failure: "+err.Error())
	}

	if resp.IsError() {
		return nil, errorFromResponse(resp.StatusCode(), resp.Body())
	}

	return resp.Body(), nil
}

type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorFromResponse maps a non-2xx response to the taxonomy. A recognized
// server-asserted code is preserved verbatim; it is how a CSRF_INVALID
// rejection stays distinguishable from a generic 403.
func errorFromResponse(status int, body []byte) *apierror.Error {
	var wire errorBody
	if len(body) > 0 && json.Unmarshal(body, &wire) == nil {
		code, message := wire.Code, wire.Message
		if wire.Error != nil {
			if code == "" {
				code = wire.Error.Code
			}
			if message == "" {
				message = wire.Error.Message
			}
		}
		if code != "" || message != "" {
			var details any
			if len(wire.Details) > 0 {
				details = json.RawMessage(wire.Details)
			}
			return apierror.FromServer(status, code, message, details)
		}
	}

	err := apierror.New(status, http.StatusText(status))
	if len(body) > 0 {
		err.Details = string(body)
	}
	return err
}
