package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pkt.systems/pslog"
	"pkt.systems/seammcp"
	"pkt.systems/seammcp/internal/svcfields"
	mcpserver "pkt.systems/seammcp/mcp"
	"pkt.systems/seammcp/seam"
)

const (
	configKey            = "config"
	seamAPIKeyKey        = "seam.api_key"
	seamEndpointKey      = "seam.endpoint"
	seamHTTPTimeoutKey   = "seam.http_timeout"
	seamRateLimitKey     = "seam.rate_limit"
	seamRateBurstKey     = "seam.rate_burst"
	mcpTransportKey      = "mcp.transport"
	mcpListenKey         = "mcp.listen"
	mcpPathKey           = "mcp.path"
	metricsListenKey     = "metrics.listen"
	metricsProfilingKey  = "metrics.profiling"
	pprofListenKey       = "pprof.listen"
	otlpEndpointKey      = "otlp.endpoint"
	logLevelKey          = "log.level"
	telemetryGracePeriod = 5 * time.Second
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(context.Background(),
		pslog.WithEnvPrefix(seammcp.LogEnvPrefix),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "seammcp")
	if err := loadDotEnv(seammcp.DotEnvFileName); err != nil {
		svcfields.WithSubsystem(baseLogger, svcfields.CLIRoot).Warn("dotenv.load.failed", "path", seammcp.DotEnvFileName, "error", err)
	}
	cmd := newRootCommand(baseLogger)
	rootInvocation := invocationTargetsRootCommand(cmd, os.Args[1:])
	ctx = withSignalCancel(ctx)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			if rootInvocation {
				svcfields.WithSubsystem(baseLogger, svcfields.CLIRoot).Error("command failed", "error", err)
			} else {
				fmt.Fprintf(os.Stderr, "%s\n", err)
			}
		}
		return 1
	}
	return 0
}

// loadDotEnv populates unset environment variables from path. A missing file
// is not an error and variables already present in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func invocationTargetsRootCommand(root *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return true
	}
	lookupLong := func(name string) *pflag.Flag {
		flag := root.Flags().Lookup(name)
		if flag == nil {
			flag = root.PersistentFlags().Lookup(name)
		}
		return flag
	}
	lookupShort := func(shorthand string) *pflag.Flag {
		flag := root.Flags().ShorthandLookup(shorthand)
		if flag == nil {
			flag = root.PersistentFlags().ShorthandLookup(shorthand)
		}
		return flag
	}
	remainingHasSubcommand := func(rest []string) bool {
		for _, tok := range rest {
			if isSubcommandToken(root, tok) {
				return true
			}
		}
		return false
	}
	for i := 0; i < len(args); {
		arg := args[i]
		if arg == "--" {
			return true
		}
		if strings.HasPrefix(arg, "--") {
			if strings.IndexByte(arg, '=') >= 0 {
				i++
				continue
			}
			flag := lookupLong(strings.TrimPrefix(arg, "--"))
			if flag == nil {
				return !remainingHasSubcommand(args[i+1:])
			}
			i++
			if flag.NoOptDefVal == "" && i < len(args) {
				i++
			}
			continue
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			sh := strings.TrimPrefix(arg, "-")
			consumeNext := false
			for idx, ch := range sh {
				flag := lookupShort(string(ch))
				if flag == nil {
					return !remainingHasSubcommand(args[i+1:])
				}
				if flag.NoOptDefVal == "" {
					if idx == len(sh)-1 {
						consumeNext = true
					}
					break
				}
			}
			i++
			if consumeNext && i < len(args) {
				i++
			}
			continue
		}
		return !isSubcommandToken(root, arg)
	}
	return true
}

func isSubcommandToken(root *cobra.Command, token string) bool {
	for _, sub := range root.Commands() {
		if token == sub.Name() {
			return true
		}
		for _, alias := range sub.Aliases {
			if token == alias {
				return true
			}
		}
	}
	return false
}

func loadConfigFile() (string, error) {
	cfgPath := strings.TrimSpace(viper.GetString(configKey))
	explicit := cfgPath != ""

	if cfgPath == "" {
		if candidate, err := seammcp.DefaultConfigPath(); err == nil {
			if _, err := os.Stat(candidate); err == nil {
				cfgPath = candidate
			}
		}
	}

	if cfgPath == "" {
		return "", nil
	}

	expanded, err := expandPath(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", expanded)
	}

	viper.SetConfigFile(expanded)
	if err := viper.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", expanded, err)
	}
	return expanded, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(p) == 1 {
			p = home
		} else if p[1] == '/' || p[1] == '\\' {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Abs(p)
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seammcp",
		Short:         "seammcp exposes Seam smart locks and access codes as Model Context Protocol tools",
		SilenceErrors: true,
		Example: `
  # stdio transport for a local MCP client (API key from the environment)
  SEAM_API_KEY=seam_test_xxx seammcp

  # streamable HTTP on localhost with Prometheus metrics
  seammcp --transport http --listen 127.0.0.1:19342 --metrics-listen 127.0.0.1:9464

  # print the tools/list payload without credentials
  seammcp tools
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := baseLogger
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SilenceUsage = true

			configFile, err := loadConfigFile()
			if err != nil {
				return err
			}
			if level, ok := pslog.ParseLevel(strings.TrimSpace(viper.GetString(logLevelKey))); ok {
				logger = logger.LogLevel(level)
			}
			cliLogger := svcfields.WithSubsystem(logger, svcfields.CLIRoot)
			svcfields.WithSubsystem(logger, svcfields.MCPLifecycle).WithLogLevel().Info(
				"welcome to seammcp",
				"app", "seammcp",
				"pid", os.Getpid(),
			)
			if configFile != "" {
				cliLogger.Info("loaded config file", "path", configFile)
			}

			cfg, telCfg, err := configFromViper()
			if err != nil {
				return err
			}
			tel, err := seammcp.SetupTelemetry(ctx, telCfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryGracePeriod)
				defer cancel()
				if err := tel.Shutdown(shutdownCtx); err != nil {
					cliLogger.Warn("telemetry shutdown failed", "error", err)
				}
			}()

			srv, err := mcpserver.NewServer(mcpserver.NewServerRequest{
				Config:     cfg,
				Logger:     logger,
				Registerer: tel.Registerer(),
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	persistentFlags := cmd.PersistentFlags()
	persistentFlags.StringP(configKey, "c", "", "path to YAML config file (defaults to $HOME/.seammcp/"+seammcp.DefaultConfigFileName+")")

	flags := cmd.Flags()
	flags.StringP("api-key", "k", "", "Seam API key (env SEAM_API_KEY or SEAMMCP_SEAM_API_KEY)")
	flags.String("seam-endpoint", seam.DefaultEndpoint, "Seam API base URL")
	flags.Duration("seam-timeout", seam.DefaultHTTPTimeout, "HTTP timeout for each Seam API request")
	flags.Float64("seam-rate-limit", 0, "maximum Seam API requests per second (0 disables)")
	flags.Int("seam-rate-burst", 1, "burst size for --seam-rate-limit")
	flags.StringP("transport", "t", mcpserver.TransportStdio, "MCP transport (stdio or http)")
	flags.StringP("listen", "l", mcpserver.DefaultListen, "listen address for the http transport")
	flags.String("mcp-path", mcpserver.DefaultMCPPath, "HTTP path for the MCP streamable endpoint")
	flags.String("metrics-listen", "", "Prometheus /metrics listen address (empty disables)")
	flags.Bool("enable-profiling-metrics", false, "add Go runtime metrics to the Prometheus endpoint")
	flags.String("pprof-listen", "", "pprof listen address (empty disables)")
	flags.String("otlp-endpoint", "", "OTLP trace endpoint (host:port for grpc, or grpc://, grpcs://, http://, https:// URL)")
	flags.String("log-level", "", "log level override (trace, debug, info, warn, error)")

	viper.SetEnvPrefix(seammcp.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	mustBindFlag(configKey, "SEAMMCP_CONFIG", persistentFlags.Lookup(configKey))
	mustBindFlag(seamAPIKeyKey, "", flags.Lookup("api-key"), "SEAMMCP_SEAM_API_KEY", seammcp.SeamAPIKeyEnv)
	mustBindFlag(seamEndpointKey, "SEAMMCP_SEAM_ENDPOINT", flags.Lookup("seam-endpoint"))
	mustBindFlag(seamHTTPTimeoutKey, "SEAMMCP_SEAM_TIMEOUT", flags.Lookup("seam-timeout"))
	mustBindFlag(seamRateLimitKey, "SEAMMCP_SEAM_RATE_LIMIT", flags.Lookup("seam-rate-limit"))
	mustBindFlag(seamRateBurstKey, "SEAMMCP_SEAM_RATE_BURST", flags.Lookup("seam-rate-burst"))
	mustBindFlag(mcpTransportKey, "SEAMMCP_TRANSPORT", flags.Lookup("transport"))
	mustBindFlag(mcpListenKey, "SEAMMCP_LISTEN", flags.Lookup("listen"))
	mustBindFlag(mcpPathKey, "SEAMMCP_MCP_PATH", flags.Lookup("mcp-path"))
	mustBindFlag(metricsListenKey, "SEAMMCP_METRICS_LISTEN", flags.Lookup("metrics-listen"))
	mustBindFlag(metricsProfilingKey, "SEAMMCP_ENABLE_PROFILING_METRICS", flags.Lookup("enable-profiling-metrics"))
	mustBindFlag(pprofListenKey, "SEAMMCP_PPROF_LISTEN", flags.Lookup("pprof-listen"))
	mustBindFlag(otlpEndpointKey, "SEAMMCP_OTLP_ENDPOINT", flags.Lookup("otlp-endpoint"))
	mustBindFlag(logLevelKey, "SEAMMCP_LOG_LEVEL", flags.Lookup("log-level"))

	cmd.AddCommand(newToolsCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// mustBindFlag binds flag to key and, when given, to the listed environment
// variables (first set variable wins).
func mustBindFlag(key, env string, flag *pflag.Flag, extraEnv ...string) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	envs := extraEnv
	if env != "" {
		envs = append([]string{env}, extraEnv...)
	}
	if len(envs) == 0 {
		return
	}
	if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
		panic(err)
	}
}

func configFromViper() (mcpserver.Config, seammcp.TelemetryConfig, error) {
	timeout := viper.GetDuration(seamHTTPTimeoutKey)
	if timeout < 0 {
		return mcpserver.Config{}, seammcp.TelemetryConfig{}, fmt.Errorf("seam timeout must not be negative, got %s", timeout)
	}
	rateLimit := viper.GetFloat64(seamRateLimitKey)
	if rateLimit < 0 {
		return mcpserver.Config{}, seammcp.TelemetryConfig{}, fmt.Errorf("seam rate limit must not be negative, got %g", rateLimit)
	}
	cfg := mcpserver.Config{
		SeamAPIKey:      strings.TrimSpace(viper.GetString(seamAPIKeyKey)),
		SeamEndpoint:    strings.TrimSpace(viper.GetString(seamEndpointKey)),
		SeamHTTPTimeout: timeout,
		SeamRateLimit:   rateLimit,
		SeamRateBurst:   viper.GetInt(seamRateBurstKey),
		Transport:       strings.TrimSpace(viper.GetString(mcpTransportKey)),
		Listen:          strings.TrimSpace(viper.GetString(mcpListenKey)),
		MCPPath:         strings.TrimSpace(viper.GetString(mcpPathKey)),
	}
	telCfg := seammcp.TelemetryConfig{
		OTLPEndpoint:     strings.TrimSpace(viper.GetString(otlpEndpointKey)),
		MetricsListen:    strings.TrimSpace(viper.GetString(metricsListenKey)),
		PprofListen:      strings.TrimSpace(viper.GetString(pprofListenKey)),
		ProfilingMetrics: viper.GetBool(metricsProfilingKey),
	}
	return cfg, telCfg, nil
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
