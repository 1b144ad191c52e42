package svcfields

import (
	"strings"

	"pkt.systems/pslog"
)

// SubsystemKey is the canonical key for subsystem tags.
const SubsystemKey = pslog.TrustedString("sys")

// Subsystems used across seammcp. Keep these dot-delimited so log
// filters can match on prefixes (mcp.*, seam.*).
const (
	CLIRoot       = "cli.root"
	MCPLifecycle  = "mcp.lifecycle"
	MCPTools      = "mcp.tools"
	MCPTransport  = "mcp.transport"
	SeamClient    = "seam.client"
	TelemetryRoot = "telemetry"
)

// Subsystem joins parts into a dot-delimited subsystem path, dropping empty
// fragments and stray separators.
func Subsystem(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.Trim(part, ". "); part != "" {
			filtered = append(filtered, part)
		}
	}
	return strings.Join(filtered, ".")
}

// WithSubsystem tags every entry emitted by logger with the subsystem. A nil
// logger becomes a no-op logger so callers never need to guard.
func WithSubsystem(logger pslog.Logger, parts ...string) pslog.Logger {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	subsystem := Subsystem(parts...)
	if subsystem == "" {
		return logger
	}
	return logger.With(SubsystemKey, subsystem)
}
