package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/seam"
)

func connectMCPClientSession(t *testing.T, s *server) (*mcpsdk.ClientSession, func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	t1, t2 := mcpsdk.NewInMemoryTransports()
	ss, err := s.newMCPServer().Connect(ctx, t1, nil)
	if err != nil {
		cancel()
		t.Fatalf("server connect: %v", err)
	}
	cs, err := client.Connect(ctx, t2, nil)
	if err != nil {
		_ = ss.Close()
		cancel()
		t.Fatalf("client connect: %v", err)
	}
	return cs, func() {
		_ = cs.Close()
		_ = ss.Close()
		cancel()
	}
}

func callTool(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected content in tool result")
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func decodeToolResult(t *testing.T, res *mcpsdk.CallToolResult, out any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	raw := []byte(resultText(t, res))
	if res.StructuredContent != nil {
		var err error
		raw, err = json.Marshal(res.StructuredContent)
		if err != nil {
			t.Fatalf("encode structured content: %v", err)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode tool result %s: %v", raw, err)
	}
}

func extractToolErrorObject(t *testing.T, res *mcpsdk.CallToolResult) map[string]any {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected isError=true")
	}
	var content map[string]any
	text := resultText(t, res)
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		t.Fatalf("expected json error envelope text, got %q: %v", text, err)
	}
	errObj, ok := content["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %#v", content["error"])
	}
	return errObj
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func TestMCPGetStatusEndToEnd(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: []seam.Lock{
		{DeviceID: "A", Properties: seam.LockProperties{Locked: boolPtr(true), BatteryLevel: floatPtr(0.25), Online: boolPtr(true)}},
		{DeviceID: "B", Properties: seam.LockProperties{Locked: boolPtr(false), BatteryLevel: floatPtr(0.5), Online: boolPtr(false)}},
	}}
	cs, closeFn := connectMCPClientSession(t, newFakeToolServer(t, fake))
	defer closeFn()

	var sum struct {
		LockStates struct {
			Locked           int `json:"locked"`
			Unlocked         int `json:"unlocked"`
			LockedPercentage int `json:"locked_percentage"`
		} `json:"lock_states"`
		Connectivity struct {
			Online  int `json:"online"`
			Offline int `json:"offline"`
		} `json:"connectivity"`
		BatteryStatus struct {
			Low    int `json:"low_battery_count"`
			Medium int `json:"medium_battery_count"`
		} `json:"battery_status"`
	}
	decodeToolResult(t, callTool(t, cs, toolGetStatus, map[string]any{}), &sum)
	if sum.LockStates.Locked != 1 || sum.LockStates.Unlocked != 1 || sum.LockStates.LockedPercentage != 50 {
		t.Fatalf("unexpected lock states %+v", sum.LockStates)
	}
	if sum.Connectivity.Online != 1 || sum.Connectivity.Offline != 1 {
		t.Fatalf("unexpected connectivity %+v", sum.Connectivity)
	}
	if sum.BatteryStatus.Low != 1 || sum.BatteryStatus.Medium != 1 {
		t.Fatalf("unexpected battery status %+v", sum.BatteryStatus)
	}
}

func TestMCPUpdateAccessCodeEndToEnd(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{}
	cs, closeFn := connectMCPClientSession(t, newFakeToolServer(t, fake))
	defer closeFn()

	var out confirmationToolOutput
	decodeToolResult(t, callTool(t, cs, toolUpdateAccessCode, map[string]any{
		"access_code_id": "ac_1",
		"name":           "Renamed",
	}), &out)
	if out.Status != "success" {
		t.Fatalf("unexpected output %+v", out)
	}
	params := fake.updateParams[0]
	if params.Code != nil || params.StartsAt != nil || params.EndsAt != nil || params.Name == nil {
		t.Fatalf("expected sparse update, got %+v", params)
	}
}

func TestMCPMissingAPIKeyReportsConfigurationError(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	applyDefaults(&cfg)
	s := newServer(cfg, pslog.NoopLogger(), nil, nil)
	cs, closeFn := connectMCPClientSession(t, s)
	defer closeFn()

	errObj := extractToolErrorObject(t, callTool(t, cs, toolListLocks, map[string]any{}))
	if got := toString(errObj["error_code"]); got != errorCodeConfiguration {
		t.Fatalf("expected configuration_error, got %q", got)
	}
	detail := toString(errObj["detail"])
	if !strings.HasPrefix(detail, "Failed to list locks: Seam API key not configured") {
		t.Fatalf("unexpected detail %q", detail)
	}
	if !strings.Contains(detail, "\nTrace:") {
		t.Fatalf("expected list_locks trace in detail, got %q", detail)
	}
}

func TestMCPValidationErrorEnvelope(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	cs, closeFn := connectMCPClientSession(t, newFakeToolServer(t, fake))
	defer closeFn()

	errObj := extractToolErrorObject(t, callTool(t, cs, toolCreateAccessCodesMultiple, map[string]any{
		"name":            "Nowhere",
		"location_filter": "Atlantis",
	}))
	if got := toString(errObj["error_code"]); got != errorCodeInvalid {
		t.Fatalf("expected invalid_argument, got %q", got)
	}
	if got := toString(errObj["tool"]); got != toolCreateAccessCodesMultiple {
		t.Fatalf("unexpected tool %q", got)
	}
	if fake.called("CreateMultipleAccessCodes") != 0 {
		t.Fatalf("create must not be called")
	}
}

func TestMCPRemoteErrorEnvelope(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	cs, closeFn := connectMCPClientSession(t, newFakeToolServer(t, fake))
	defer closeFn()

	errObj := extractToolErrorObject(t, callTool(t, cs, toolGetLock, map[string]any{"device_id": "missing"}))
	if got := toString(errObj["error_code"]); got != errorCodeRemote {
		t.Fatalf("expected remote_error, got %q", got)
	}
	if status, ok := errObj["http_status"].(float64); !ok || status != 404 {
		t.Fatalf("expected http_status 404, got %#v", errObj["http_status"])
	}
	if got := toString(errObj["request_id"]); got != "req_missing" {
		t.Fatalf("expected request id, got %q", got)
	}
	if got := toString(errObj["detail"]); got != "Failed to get lock details: seam: device_not_found: Device not found" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestMCPToolsRegistered(t *testing.T) {
	t.Parallel()

	cs, closeFn := connectMCPClientSession(t, newFakeToolServer(t, &fakeSeam{}))
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	list, err := cs.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	found := map[string]*mcpsdk.Tool{}
	for _, tool := range list.Tools {
		found[tool.Name] = tool
	}
	if len(found) != len(mcpToolNames) {
		t.Fatalf("expected %d tools, got %d", len(mcpToolNames), len(found))
	}
	for _, name := range mcpToolNames {
		if found[name] == nil {
			t.Fatalf("missing tool %s", name)
		}
	}
}

func TestApplyDefaultsAndValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{Transport: " HTTP "}
	applyDefaults(&cfg)
	if cfg.Transport != TransportHTTP || cfg.Listen != DefaultListen || cfg.MCPPath != DefaultMCPPath {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SeamEndpoint != seam.DefaultEndpoint || cfg.SeamHTTPTimeout != seam.DefaultHTTPTimeout {
		t.Fatalf("unexpected seam defaults %+v", cfg)
	}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := cfg
	bad.Transport = "sse"
	if err := validateConfig(bad); err == nil {
		t.Fatalf("expected unsupported transport error")
	}
	bad = cfg
	bad.Listen = "no-port"
	if err := validateConfig(bad); err == nil {
		t.Fatalf("expected listen address error")
	}
}

func TestNewServerDoesNotRequireAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(NewServerRequest{Logger: pslog.NoopLogger()}); err != nil {
		t.Fatalf("new server without key: %v", err)
	}
}

func TestCleanHTTPPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          "/mcp",
		"mcp":       "/mcp",
		"/seam/":    "/seam",
		" /a/../b ": "/b",
	}
	for in, want := range cases {
		if got := cleanHTTPPath(in); got != want {
			t.Fatalf("cleanHTTPPath(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestHTTPMuxHealthz(t *testing.T) {
	t.Parallel()

	s := newFakeToolServer(t, &fakeSeam{})
	ts := httptest.NewServer(s.buildMux())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Fatalf("unexpected healthz response %d %q", resp.StatusCode, body)
	}
}

func TestRunHTTPStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := Config{Transport: TransportHTTP, Listen: "127.0.0.1:0"}
	applyDefaults(&cfg)
	s := newServer(cfg, pslog.NoopLogger(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
