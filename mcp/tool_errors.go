package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/seammcp/seam"
)

const (
	errorCodeConfiguration = "configuration_error"
	errorCodeInvalid       = "invalid_argument"
	errorCodeRemote        = "remote_error"
)

// ConfigurationError reports missing or unusable server configuration, such
// as an absent Seam API key. It is raised on first use, not at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("configuration field %s is not set", e.Field)
}

// ValidationError reports a bad tool argument or a selection that resolved to
// nothing. No remote mutation has happened when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func requiredError(field string) error {
	return &ValidationError{Field: field, Reason: field + " is required"}
}

func requireString(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", requiredError(field)
	}
	return value, nil
}

type toolErrorEnvelope struct {
	ErrorCode         string `json:"error_code"`
	Tool              string `json:"tool"`
	Detail            string `json:"detail"`
	Retryable         bool   `json:"retryable"`
	HTTPStatus        int    `json:"http_status,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
	RequestID         string `json:"request_id,omitempty"`
	SeamErrorType     string `json:"seam_error_type,omitempty"`
}

// withToolErrors converts any adapter failure into a toolError so the SDK
// reports it as an isError result carrying the JSON envelope.
func withToolErrors[In, Out any](tool string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err == nil {
			return res, out, nil
		}
		var zero Out
		return nil, zero, toolError{Envelope: classifyToolError(tool, err), cause: err}
	}
}

type toolError struct {
	Envelope toolErrorEnvelope
	cause    error
}

func (e toolError) Error() string {
	envelope := map[string]any{"error": e.Envelope}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return `{"error":{"error_code":"remote_error","detail":"failed to encode error envelope"}}`
	}
	return string(encoded)
}

func (e toolError) Unwrap() error {
	return e.cause
}

func classifyToolError(tool string, err error) toolErrorEnvelope {
	env := toolErrorEnvelope{
		ErrorCode: errorCodeRemote,
		Tool:      tool,
		Detail:    fmt.Sprintf("Failed to %s: %s", toolFailureLabel(tool), strings.TrimSpace(err.Error())),
	}
	if tool == toolListLocks {
		env.Detail += "\n" + errorTrace(err)
	}

	var cfgErr *ConfigurationError
	var valErr *ValidationError
	var apiErr *seam.APIError
	switch {
	case errors.As(err, &cfgErr):
		env.ErrorCode = errorCodeConfiguration
	case errors.As(err, &valErr):
		env.ErrorCode = errorCodeInvalid
	case errors.As(err, &apiErr):
		env.HTTPStatus = apiErr.Status
		env.RequestID = apiErr.RequestID
		env.SeamErrorType = apiErr.Type
		env.Retryable = apiErr.Retryable()
		if apiErr.RetryAfter > 0 {
			env.RetryAfterSeconds = int64(apiErr.RetryAfter.Seconds())
		}
	case errors.Is(err, context.DeadlineExceeded):
		env.Retryable = true
	}
	return env
}

// errorTrace renders the wrap chain of err, outermost first, one cause per
// line.
func errorTrace(err error) string {
	var b strings.Builder
	b.WriteString("Trace:")
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		fmt.Fprintf(&b, "\n  %T: %s", cur, cur.Error())
	}
	return b.String()
}
