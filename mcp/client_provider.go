package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/seam"
)

// SeamAPI is the set of Seam operations the tools call. *seam.Client
// implements it.
type SeamAPI interface {
	ListLocks(ctx context.Context) ([]seam.Lock, error)
	GetLock(ctx context.Context, deviceID string) (*seam.Lock, error)
	LockDoor(ctx context.Context, deviceID string) (*seam.ActionAttempt, error)
	UnlockDoor(ctx context.Context, deviceID string) (*seam.ActionAttempt, error)
	CreateAccessCode(ctx context.Context, params seam.CreateAccessCodeParams) (*seam.AccessCode, error)
	CreateMultipleAccessCodes(ctx context.Context, params seam.CreateMultipleAccessCodesParams) ([]seam.AccessCode, error)
	ListAccessCodes(ctx context.Context, params seam.ListAccessCodesParams) ([]seam.AccessCode, error)
	UpdateAccessCode(ctx context.Context, params seam.UpdateAccessCodeParams) error
	DeleteAccessCode(ctx context.Context, accessCodeID string) error
}

var _ SeamAPI = (*seam.Client)(nil)

// Factory builds the Seam client from an API key.
type Factory func(apiKey string) (SeamAPI, error)

func defaultFactory(cfg Config, logger pslog.Logger) Factory {
	return func(apiKey string) (SeamAPI, error) {
		cli, err := seam.New(apiKey,
			seam.WithEndpoint(cfg.SeamEndpoint),
			seam.WithHTTPTimeout(cfg.SeamHTTPTimeout),
			seam.WithRateLimit(cfg.SeamRateLimit, cfg.SeamRateBurst),
			seam.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return cli, nil
	}
}

// clientProvider builds the shared Seam client exactly once, on first use.
// The outcome, client or error, is kept for the life of the process; a new
// API key needs a restart.
type clientProvider struct {
	apiKey  string
	factory Factory
	logger  pslog.Logger

	once   sync.Once
	client SeamAPI
	err    error
}

func newClientProvider(apiKey string, factory Factory, logger pslog.Logger) *clientProvider {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &clientProvider{apiKey: apiKey, factory: factory, logger: logger}
}

// Client returns the shared client, constructing it on the first call.
func (p *clientProvider) Client(_ context.Context) (SeamAPI, error) {
	p.once.Do(func() {
		p.client, p.err = p.build()
	})
	return p.client, p.err
}

func (p *clientProvider) build() (SeamAPI, error) {
	key := strings.TrimSpace(p.apiKey)
	if key == "" {
		p.logger.Error("seam.client.init.missing_api_key")
		return nil, &ConfigurationError{
			Field:   "seam_api_key",
			Message: "Seam API key not configured. Please set seam.api_key (--api-key or SEAM_API_KEY) in your MCP server configuration.",
		}
	}
	p.logger.Info("seam.client.init", "api_key_length", len(key))
	if p.factory == nil {
		return nil, fmt.Errorf("initialize seam client: no factory configured")
	}
	cli, err := p.factory(key)
	if err != nil {
		p.logger.Error("seam.client.init.error", "error", err)
		return nil, fmt.Errorf("initialize seam client: %w", err)
	}
	p.logger.Debug("seam.client.init.success")
	return cli, nil
}
