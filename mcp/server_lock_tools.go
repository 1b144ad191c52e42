package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/seammcp/seam"
)

type noArgsToolInput struct{}

type deviceToolInput struct {
	DeviceID string `json:"device_id" jsonschema:"The device ID of the lock"`
}

type lockView struct {
	DeviceID     string   `json:"device_id"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        any      `json:"model,omitempty"`
	Locked       *bool    `json:"locked,omitempty"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Online       *bool    `json:"online,omitempty"`
}

func viewLock(lock seam.Lock) lockView {
	return lockView{
		DeviceID:     lock.DeviceID,
		Name:         lock.Name(),
		Manufacturer: lock.Properties.Manufacturer,
		Model:        modelName(lock.Properties.Model),
		Locked:       lock.Properties.Locked,
		BatteryLevel: lock.Properties.BatteryLevel,
		Online:       lock.Properties.Online,
	}
}

// modelName reduces Seam's model object to its display name. Plain strings
// and unknown shapes pass through.
func modelName(model any) any {
	if obj, ok := model.(map[string]any); ok {
		if name, ok := obj["display_name"].(string); ok && name != "" {
			return name
		}
	}
	return model
}

type listLocksToolOutput struct {
	TotalLocks int        `json:"total_locks"`
	Locks      []lockView `json:"locks"`
}

func (s *server) handleListLocksTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noArgsToolInput) (*mcpsdk.CallToolResult, listLocksToolOutput, error) {
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, listLocksToolOutput{}, err
	}
	locks, err := cli.ListLocks(ctx)
	if err != nil {
		return nil, listLocksToolOutput{}, err
	}
	out := listLocksToolOutput{TotalLocks: len(locks), Locks: make([]lockView, 0, len(locks))}
	for _, lock := range locks {
		out.Locks = append(out.Locks, viewLock(lock))
	}
	s.toolLog.Debug("mcp.tool.list_locks.result", "total_locks", out.TotalLocks)
	return nil, out, nil
}

func (s *server) handleGetStatusTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noArgsToolInput) (*mcpsdk.CallToolResult, statusSummary, error) {
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, statusSummary{}, err
	}
	locks, err := cli.ListLocks(ctx)
	if err != nil {
		return nil, statusSummary{}, err
	}
	summary := summarizeLocks(locks)
	s.toolLog.Info("mcp.tool.get_status.summary",
		"locked", summary.LockStates.Locked,
		"total_locks", summary.TotalLocks,
		"offline", summary.Connectivity.Offline,
		"low_battery", summary.BatteryStatus.LowBatteryCount,
	)
	return nil, summary, nil
}

type getLockToolOutput struct {
	DeviceID     string         `json:"device_id"`
	Name         string         `json:"name"`
	Manufacturer string         `json:"manufacturer,omitempty"`
	Model        any            `json:"model,omitempty"`
	Locked       *bool          `json:"locked,omitempty"`
	BatteryLevel *float64       `json:"battery_level,omitempty"`
	Online       *bool          `json:"online,omitempty"`
	Location     *seam.Location `json:"location,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Errors       []seam.Issue   `json:"errors,omitempty"`
	Warnings     []seam.Issue   `json:"warnings,omitempty"`
}

func (s *server) handleGetLockTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deviceToolInput) (*mcpsdk.CallToolResult, getLockToolOutput, error) {
	deviceID, err := requireString("device_id", input.DeviceID)
	if err != nil {
		return nil, getLockToolOutput{}, err
	}
	lock, err := s.fetchLock(ctx, deviceID)
	if err != nil {
		return nil, getLockToolOutput{}, err
	}
	view := viewLock(*lock)
	return nil, getLockToolOutput{
		DeviceID:     view.DeviceID,
		Name:         view.Name,
		Manufacturer: view.Manufacturer,
		Model:        view.Model,
		Locked:       view.Locked,
		BatteryLevel: view.BatteryLevel,
		Online:       view.Online,
		Location:     lock.Location,
		CreatedAt:    lock.CreatedAt,
		Capabilities: lock.CapabilitiesSupported,
		Errors:       lock.Errors,
		Warnings:     lock.Warnings,
	}, nil
}

type doorActionToolOutput struct {
	Status        string         `json:"status"`
	Message       string         `json:"message"`
	ActionAttempt map[string]any `json:"action_attempt"`
}

func (s *server) handleLockDoorTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deviceToolInput) (*mcpsdk.CallToolResult, doorActionToolOutput, error) {
	return s.doorAction(ctx, input, true)
}

func (s *server) handleUnlockDoorTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deviceToolInput) (*mcpsdk.CallToolResult, doorActionToolOutput, error) {
	return s.doorAction(ctx, input, false)
}

func (s *server) doorAction(ctx context.Context, input deviceToolInput, lock bool) (*mcpsdk.CallToolResult, doorActionToolOutput, error) {
	deviceID, err := requireString("device_id", input.DeviceID)
	if err != nil {
		return nil, doorActionToolOutput{}, err
	}
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, doorActionToolOutput{}, err
	}
	var (
		attempt *seam.ActionAttempt
		verb    string
	)
	if lock {
		attempt, err = cli.LockDoor(ctx, deviceID)
		verb = "locked"
	} else {
		attempt, err = cli.UnlockDoor(ctx, deviceID)
		verb = "unlocked"
	}
	if err != nil {
		return nil, doorActionToolOutput{}, err
	}
	s.toolLog.Info("mcp.tool.door_action.issued", "device_id", deviceID, "action", verb, "action_attempt_id", attempt.ActionAttemptID, "status", attempt.Status)
	return nil, doorActionToolOutput{
		Status:        "success",
		Message:       fmt.Sprintf("Successfully %s door %s", verb, deviceID),
		ActionAttempt: actionAttemptObject(attempt),
	}, nil
}

func actionAttemptObject(attempt *seam.ActionAttempt) map[string]any {
	if attempt == nil {
		return map[string]any{}
	}
	if attempt.Raw != nil {
		return attempt.Raw
	}
	out := map[string]any{
		"action_attempt_id": attempt.ActionAttemptID,
		"action_type":       attempt.ActionType,
		"status":            attempt.Status,
	}
	if attempt.Result != nil {
		out["result"] = attempt.Result
	}
	if attempt.Error != nil {
		out["error"] = attempt.Error
	}
	return out
}

type lockStatusToolOutput struct {
	DeviceID     string   `json:"device_id"`
	Name         string   `json:"name"`
	Locked       *bool    `json:"locked,omitempty"`
	Status       string   `json:"status"`
	StatusEmoji  string   `json:"status_emoji"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Online       *bool    `json:"online,omitempty"`
}

func (s *server) handleGetLockStatusTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deviceToolInput) (*mcpsdk.CallToolResult, lockStatusToolOutput, error) {
	deviceID, err := requireString("device_id", input.DeviceID)
	if err != nil {
		return nil, lockStatusToolOutput{}, err
	}
	lock, err := s.fetchLock(ctx, deviceID)
	if err != nil {
		return nil, lockStatusToolOutput{}, err
	}
	return nil, lockStatus(*lock), nil
}

func lockStatus(lock seam.Lock) lockStatusToolOutput {
	out := lockStatusToolOutput{
		DeviceID:     lock.DeviceID,
		Name:         lock.Name(),
		Locked:       lock.Properties.Locked,
		Status:       "unlocked",
		StatusEmoji:  "🔓",
		BatteryLevel: lock.Properties.BatteryLevel,
		Online:       lock.Properties.Online,
	}
	if lock.IsLocked() {
		out.Status = "locked"
		out.StatusEmoji = "🔒"
	}
	return out
}

func (s *server) fetchLock(ctx context.Context, deviceID string) (*seam.Lock, error) {
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	return cli.GetLock(ctx, deviceID)
}
