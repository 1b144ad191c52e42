package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/internal/svcfields"
	"pkt.systems/seammcp/internal/version"
	"pkt.systems/seammcp/seam"
)

// Transports supported by Run.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied to a zero Config.
const (
	DefaultListen  = "127.0.0.1:19342"
	DefaultMCPPath = "/mcp"
)

const (
	serverName      = "seam-mcp-server"
	serverTitle     = "Seam Smart Lock Control"
	shutdownTimeout = 10 * time.Second
)

// Config controls seammcp server runtime behavior.
type Config struct {
	// SeamAPIKey authenticates against Seam. It is only checked when the
	// first tool needs the client.
	SeamAPIKey      string
	SeamEndpoint    string
	SeamHTTPTimeout time.Duration
	// SeamRateLimit caps Seam requests per second (0 disables) with
	// SeamRateBurst tokens of headroom.
	SeamRateLimit float64
	SeamRateBurst int
	Transport     string
	Listen        string
	MCPPath       string
}

// Server is the MCP service contract.
type Server interface {
	Run(context.Context) error
}

// NewServerRequest wraps constructor inputs.
type NewServerRequest struct {
	Config Config
	Logger pslog.Logger
	// Factory overrides how the Seam client is built. Nil uses seam.New.
	Factory Factory
	// Registerer receives the tool metrics. Nil keeps them private.
	Registerer prometheus.Registerer
}

type server struct {
	cfg          Config
	logger       pslog.Logger
	lifecycleLog pslog.Logger
	transportLog pslog.Logger
	toolLog      pslog.Logger
	clients      *clientProvider
	metrics      *toolMetrics
	mcpHTTPPath  string
}

// NewServer constructs the seammcp service. A missing API key is not an
// error here.
func NewServer(req NewServerRequest) (Server, error) {
	cfg := req.Config
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = pslog.NewStructured(context.Background(), os.Stderr).With("app", "seammcp")
	}
	return newServer(cfg, logger, req.Factory, req.Registerer), nil
}

func newServer(cfg Config, logger pslog.Logger, factory Factory, reg prometheus.Registerer) *server {
	if factory == nil {
		factory = defaultFactory(cfg, logger)
	}
	s := &server{
		cfg:          cfg,
		logger:       logger,
		lifecycleLog: svcfields.WithSubsystem(logger, svcfields.MCPLifecycle),
		transportLog: svcfields.WithSubsystem(logger, svcfields.MCPTransport, cfg.Transport),
		toolLog:      svcfields.WithSubsystem(logger, svcfields.MCPTools),
		metrics:      newToolMetrics(reg),
		mcpHTTPPath:  cleanHTTPPath(cfg.MCPPath),
	}
	s.clients = newClientProvider(cfg.SeamAPIKey, factory, svcfields.WithSubsystem(logger, svcfields.SeamClient))
	s.metrics.initialize(mcpToolNames)
	return s
}

func (s *server) newMCPServer() *mcpsdk.Server {
	mcpSrv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    serverName,
		Title:   serverTitle,
		Version: version.Current(),
	}, &mcpsdk.ServerOptions{
		Instructions:       defaultServerInstructions(),
		InitializedHandler: s.handleInitialized,
	})
	s.registerResources(mcpSrv)
	s.registerTools(mcpSrv)
	return mcpSrv
}

func (s *server) handleInitialized(_ context.Context, req *mcpsdk.InitializedRequest) {
	if req == nil || req.Session == nil {
		return
	}
	s.lifecycleLog.Info("mcp.session.initialized", "session_id", req.Session.ID())
}

func (s *server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case TransportStdio:
		return s.runStdio(ctx)
	default:
		return s.runHTTP(ctx)
	}
}

func (s *server) runStdio(ctx context.Context) error {
	s.lifecycleLog.Info("mcp.server.start", "transport", TransportStdio, "version", version.Current())
	err := s.newMCPServer().Run(ctx, &mcpsdk.StdioTransport{})
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		s.lifecycleLog.Info("mcp.server.stopped", "transport", TransportStdio)
		return nil
	}
	return fmt.Errorf("mcp stdio transport: %w", err)
}

func (s *server) runHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.buildMux(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.lifecycleLog.Info("mcp.server.start", "transport", TransportHTTP, "listen", s.cfg.Listen, "mcp_path", s.mcpHTTPPath, "version", version.Current())

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.lifecycleLog.Info("mcp.server.stopped", "transport", TransportHTTP)
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
}

func (s *server) buildMux() *http.ServeMux {
	mcpSrv := s.newMCPServer()
	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return mcpSrv
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(s.mcpHTTPPath, otelhttp.NewHandler(streamable, "seammcp.mcp"))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	s.transportLog.Debug("mcp.transport.http.routes", "mcp_path", s.mcpHTTPPath, "health_path", "/healthz")
	return mux
}

func (s *server) registerTools(srv *mcpsdk.Server) {
	descriptions := buildToolDescriptions()
	desc := func(name string) string {
		description, ok := descriptions[name]
		if !ok {
			panic(fmt.Sprintf("missing MCP tool description for %q", name))
		}
		return description
	}

	addTool(s, srv, toolListLocks, desc, s.handleListLocksTool)
	addTool(s, srv, toolGetStatus, desc, s.handleGetStatusTool)
	addTool(s, srv, toolGetLock, desc, s.handleGetLockTool)
	addTool(s, srv, toolLockDoor, desc, s.handleLockDoorTool)
	addTool(s, srv, toolUnlockDoor, desc, s.handleUnlockDoorTool)
	addTool(s, srv, toolGetLockStatus, desc, s.handleGetLockStatusTool)

	addTool(s, srv, toolCreateAccessCode, desc, s.handleCreateAccessCodeTool)
	addTool(s, srv, toolCreateAccessCodesMultiple, desc, s.handleCreateAccessCodesTool)
	addTool(s, srv, toolListAccessCodes, desc, s.handleListAccessCodesTool)
	addTool(s, srv, toolDeleteAccessCode, desc, s.handleDeleteAccessCodeTool)
	addTool(s, srv, toolUpdateAccessCode, desc, s.handleUpdateAccessCodeTool)
}

func addTool[In, Out any](s *server, srv *mcpsdk.Server, name string, desc func(string) string, h mcpsdk.ToolHandlerFor[In, Out]) {
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        name,
		Description: desc(name),
	}, instrumentTool(s, name, withToolErrors(name, h)))
}

func applyDefaults(cfg *Config) {
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}
	if strings.TrimSpace(cfg.MCPPath) == "" {
		cfg.MCPPath = DefaultMCPPath
	}
	if strings.TrimSpace(cfg.SeamEndpoint) == "" {
		cfg.SeamEndpoint = seam.DefaultEndpoint
	}
	if cfg.SeamHTTPTimeout <= 0 {
		cfg.SeamHTTPTimeout = seam.DefaultHTTPTimeout
	}
}

func validateConfig(cfg Config) error {
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported mcp transport %q (want %s or %s)", cfg.Transport, TransportStdio, TransportHTTP)
	}
	if cfg.Transport == TransportHTTP {
		if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
		}
	}
	return nil
}

func cleanHTTPPath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return DefaultMCPPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
