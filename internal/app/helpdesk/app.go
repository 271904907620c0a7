// Package helpdesk wires the configured client stack: token tiers, the
// policy client, and the domain services a consumer talks to.
package helpdesk

import (
	"fmt"

	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/config"
	"github.com/astro-web3/helpdesk-client/internal/domain/session"
	"github.com/astro-web3/helpdesk-client/internal/domain/ticket"
	"github.com/astro-web3/helpdesk-client/internal/domain/user"
	"github.com/astro-web3/helpdesk-client/internal/token"
	"github.com/astro-web3/helpdesk-client/pkg/logger"
	"github.com/astro-web3/helpdesk-client/pkg/otel"
	"github.com/astro-web3/helpdesk-client/pkg/tracer"
)

const serviceName = "helpdesk-client"

type App struct {
	Sessions session.Service
	Tickets  ticket.Service
	Users    user.Service
	Tokens   *token.Store
}

func New(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

	otelCfg := otel.Config{
		ServiceName:        serviceName,
		EndpointURL:        cfg.Observability.TracingEndpointURL,
		Enabled:            cfg.Observability.TraceEnabled,
		SampleRatio:        1.0,
		Insecure:           true,
		ResourceAttributes: make(map[string]string),
	}
	if err := tracer.InitTracer(serviceName, otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	// The durable tier survives restarts when Redis is configured;
	// without it both tiers are process-scoped and "remember me" lasts
	// only as long as the process does.
	durable := token.NewMemoryTier()
	if cfg.Redis.URL != "" {
		redisClient, err := token.NewRedisClient(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		durable = token.NewRedisTier(redisClient, cfg.Redis.KeyPrefix)
	}
	tokens := token.NewStore(durable, token.NewMemoryTier())

	api := client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens)

	return &App{
		Sessions: session.NewService(api, tokens),
		Tickets:  ticket.NewService(api),
		Users:    user.NewService(api),
		Tokens:   tokens,
	}, nil
}
