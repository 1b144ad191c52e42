package seam

import (
	"context"
	"fmt"
	"strings"
)

type deviceRequest struct {
	DeviceID string `json:"device_id"`
}

type listLocksResponse struct {
	Locks []Lock `json:"locks"`
}

type getLockResponse struct {
	Lock   *Lock `json:"lock"`
	Device *Lock `json:"device"`
}

type actionAttemptResponse struct {
	ActionAttempt *ActionAttempt `json:"action_attempt"`
}

// ListLocks returns every lock in the workspace.
func (c *Client) ListLocks(ctx context.Context) ([]Lock, error) {
	var resp listLocksResponse
	if err := c.postJSON(ctx, "/locks/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Locks == nil {
		return []Lock{}, nil
	}
	return resp.Locks, nil
}

// GetLock returns a single lock by device id.
func (c *Client) GetLock(ctx context.Context, deviceID string) (*Lock, error) {
	deviceID, err := requireID("device_id", deviceID)
	if err != nil {
		return nil, err
	}
	var resp getLockResponse
	if err := c.postJSON(ctx, "/locks/get", deviceRequest{DeviceID: deviceID}, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Lock != nil:
		return resp.Lock, nil
	case resp.Device != nil:
		return resp.Device, nil
	}
	return nil, fmt.Errorf("seam: /locks/get returned no lock for %s", deviceID)
}

// LockDoor asks the lock to lock. The returned action attempt is usually still
// pending.
func (c *Client) LockDoor(ctx context.Context, deviceID string) (*ActionAttempt, error) {
	return c.doorAction(ctx, "/locks/lock_door", deviceID)
}

// UnlockDoor asks the lock to unlock.
func (c *Client) UnlockDoor(ctx context.Context, deviceID string) (*ActionAttempt, error) {
	return c.doorAction(ctx, "/locks/unlock_door", deviceID)
}

func (c *Client) doorAction(ctx context.Context, path, deviceID string) (*ActionAttempt, error) {
	deviceID, err := requireID("device_id", deviceID)
	if err != nil {
		return nil, err
	}
	var resp actionAttemptResponse
	if err := c.postJSON(ctx, path, deviceRequest{DeviceID: deviceID}, &resp); err != nil {
		return nil, err
	}
	if resp.ActionAttempt == nil {
		return &ActionAttempt{Raw: map[string]any{}}, nil
	}
	return resp.ActionAttempt, nil
}

func requireID(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("seam: %s required", field)
	}
	return value, nil
}
