// Package http wraps the shared resty transport used for every call to
// the helpdesk API. Policy (auth modes, timeouts, error taxonomy) lives in
// internal/client; this layer only knows how to send a request, carry a
// cookie jar, and trace the exchange.
package http

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/astro-web3/helpdesk-client/pkg/tracer"
)

var (
	//nolint:gochecknoglobals // Global HTTP client is intentional for application-wide requests
	client *resty.Client
	//nolint:gochecknoglobals // Global once is intentional for thread-safe initialization
	once sync.Once
)

func getClient() *resty.Client {
	once.Do(func() {
		// The cookie jar carries the server's session and CSRF cookies;
		// the double-submit check fails without it. Retries stay at zero:
		// the one permitted retry in this module is the CSRF re-submit in
		// the session protocol.
		jar, _ := cookiejar.New(nil)
		client = resty.New().
			SetCookieJar(jar).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	})
	return client
}

// Client returns the shared HTTP client instance.
func Client() *resty.Client {
	return getClient()
}

type RequestOption func(*resty.Request)

func WithAuthToken(token string) RequestOption {
	return func(r *resty.Request) {
		r.SetAuthToken(token)
	}
}

func WithBody(body any) RequestOption {
	return func(r *resty.Request) {
		if body != nil {
			r.SetBody(body)
		}
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

func WithQueryParams(params map[string]string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParams(params)
	}
}

func Request(ctx context.Context, method, url string, opts ...RequestOption) (*resty.Response, error) {
	ctx, span := startClientSpan(ctx, "http.Request", method, url)
	defer span.End()

	request := getClient().R().SetContext(ctx)

	for _, opt := range opts {
		opt(request)
	}

	injectTracingHeaders(ctx, request)

	var resp *resty.Response
	var err error

	switch method {
	case http.MethodGet:
		resp, err = request.Get(url)
	case http.MethodPost:
		resp, err = request.Post(url)
	case http.MethodPut:
		resp, err = request.Put(url)
	case http.MethodPatch:
		resp, err = request.Patch(url)
	case http.MethodDelete:
		resp, err = request.Delete(url)
	default:
		resp, err = request.Execute(method, url)
	}

	recordSpan(span, resp, err)
	return resp, err
}

func startClientSpan(
	ctx context.Context,
	spanName string,
	method string,
	url string,
) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	))
}

func recordSpan(span trace.Span, resp *resty.Response, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if resp == nil {
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.IsError() {
		span.SetStatus(codes.Error, resp.Status())
		return
	}
	span.SetStatus(codes.Ok, "")
}
