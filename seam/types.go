package seam

import (
	"encoding/json"
	"strings"
)

// Issue is a structured error or warning attached to a device or access code,
// e.g. {"error_code":"device_offline","message":"...","created_at":"..."}.
type Issue map[string]any

// Location is the optional location block of a device.
type Location struct {
	LocationName string `json:"location_name,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

// LockProperties holds the device properties this client reads.
type LockProperties struct {
	Name         string   `json:"name,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        any      `json:"model,omitempty"`
	Locked       *bool    `json:"locked,omitempty"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Online       *bool    `json:"online,omitempty"`
	DoorOpen     *bool    `json:"door_open,omitempty"`
}

// Lock is a lock device as returned by /locks/list and /locks/get.
type Lock struct {
	DeviceID                    string         `json:"device_id"`
	DeviceType                  string         `json:"device_type,omitempty"`
	DisplayName                 string         `json:"display_name,omitempty"`
	WorkspaceID                 string         `json:"workspace_id,omitempty"`
	CreatedAt                   string         `json:"created_at,omitempty"`
	Properties                  LockProperties `json:"properties"`
	Location                    *Location      `json:"location,omitempty"`
	CapabilitiesSupported       []string       `json:"capabilities_supported,omitempty"`
	CanProgramOnlineAccessCodes bool           `json:"can_program_online_access_codes"`
	CanRemotelyLock             bool           `json:"can_remotely_lock,omitempty"`
	CanRemotelyUnlock           bool           `json:"can_remotely_unlock,omitempty"`
	Errors                      []Issue        `json:"errors,omitempty"`
	Warnings                    []Issue        `json:"warnings,omitempty"`
}

// Name returns properties.name, falling back to the device id.
func (l Lock) Name() string {
	if name := strings.TrimSpace(l.Properties.Name); name != "" {
		return l.Properties.Name
	}
	return l.DeviceID
}

// IsLocked reports true only when the lock explicitly reports locked=true.
func (l Lock) IsLocked() bool {
	return l.Properties.Locked != nil && *l.Properties.Locked
}

// AccessCode is a PIN programmed on a device.
type AccessCode struct {
	AccessCodeID string  `json:"access_code_id"`
	DeviceID     string  `json:"device_id"`
	Name         string  `json:"name,omitempty"`
	Code         string  `json:"code,omitempty"`
	StartsAt     string  `json:"starts_at,omitempty"`
	EndsAt       string  `json:"ends_at,omitempty"`
	Status       string  `json:"status,omitempty"`
	Type         string  `json:"type,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	IsManaged    bool    `json:"is_managed,omitempty"`
	Errors       []Issue `json:"errors,omitempty"`
	Warnings     []Issue `json:"warnings,omitempty"`
}

// ActionAttempt tracks an asynchronous device command such as LOCK_DOOR.
// Status starts as "pending"; this client does not poll for completion.
type ActionAttempt struct {
	ActionAttemptID string `json:"action_attempt_id"`
	ActionType      string `json:"action_type,omitempty"`
	Status          string `json:"status,omitempty"`
	Result          any    `json:"result,omitempty"`
	Error           any    `json:"error,omitempty"`

	// Raw is the complete object as returned by the API.
	Raw map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the raw object in Raw.
func (a *ActionAttempt) UnmarshalJSON(data []byte) error {
	type plain ActionAttempt
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ActionAttempt(p)
	a.Raw = raw
	return nil
}

// CreateAccessCodeParams is the body of /access_codes/create.
type CreateAccessCodeParams struct {
	DeviceID string  `json:"device_id"`
	Name     string  `json:"name"`
	Code     *string `json:"code,omitempty"`
	StartsAt *string `json:"starts_at,omitempty"`
	EndsAt   *string `json:"ends_at,omitempty"`
}

// CreateMultipleAccessCodesParams is the body of /access_codes/create_multiple.
type CreateMultipleAccessCodesParams struct {
	DeviceIDs []string `json:"device_ids"`
	Name      string   `json:"name"`
	Code      *string  `json:"code,omitempty"`
	StartsAt  *string  `json:"starts_at,omitempty"`
	EndsAt    *string  `json:"ends_at,omitempty"`
}

// ListAccessCodesParams is the body of /access_codes/list.
type ListAccessCodesParams struct {
	DeviceID *string `json:"device_id,omitempty"`
}

// UpdateAccessCodeParams is the body of /access_codes/update. Only non-nil
// fields are sent; omitted fields keep their server-side values.
type UpdateAccessCodeParams struct {
	AccessCodeID string  `json:"access_code_id"`
	Name         *string `json:"name,omitempty"`
	Code         *string `json:"code,omitempty"`
	StartsAt     *string `json:"starts_at,omitempty"`
	EndsAt       *string `json:"ends_at,omitempty"`
}

// OptString returns nil for blank input and a pointer to s otherwise.
func OptString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
