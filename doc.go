// Package seammcp hosts the process-level pieces of the Seam MCP server:
// default configuration locations and the optional telemetry stack
// (OTLP tracing, a Prometheus /metrics endpoint and pprof).
//
// The tools themselves live in pkt.systems/seammcp/mcp and the Seam HTTP
// client in pkt.systems/seammcp/seam. The seammcp binary under cmd/seammcp
// wires them together:
//
//	tel, err := seammcp.SetupTelemetry(ctx, seammcp.TelemetryConfig{
//	    MetricsListen: "127.0.0.1:9464",
//	}, logger)
//	if err != nil { return err }
//	defer tel.Shutdown(context.Background())
//	srv, err := mcp.NewServer(mcp.NewServerRequest{
//	    Config:     mcp.Config{SeamAPIKey: os.Getenv("SEAM_API_KEY")},
//	    Logger:     logger,
//	    Registerer: tel.Registerer(),
//	})
//	if err != nil { return err }
//	return srv.Run(ctx)
package seammcp
