package mcp

import (
	"strings"
)

const (
	toolListLocks                 = "list_locks"
	toolGetStatus                 = "get_status"
	toolGetLock                   = "get_lock"
	toolLockDoor                  = "lock_door"
	toolUnlockDoor                = "unlock_door"
	toolGetLockStatus             = "get_lock_status"
	toolCreateAccessCode          = "create_access_code"
	toolCreateAccessCodesMultiple = "create_access_code_on_multiple_locks"
	toolListAccessCodes           = "list_access_codes"
	toolDeleteAccessCode          = "delete_access_code"
	toolUpdateAccessCode          = "update_access_code"
)

var mcpToolNames = []string{
	toolListLocks,
	toolGetStatus,
	toolGetLock,
	toolLockDoor,
	toolUnlockDoor,
	toolGetLockStatus,
	toolCreateAccessCode,
	toolCreateAccessCodesMultiple,
	toolListAccessCodes,
	toolDeleteAccessCode,
	toolUpdateAccessCode,
}

// toolFailureLabels name the operation in "Failed to <label>: ..." details.
var toolFailureLabels = map[string]string{
	toolListLocks:                 "list locks",
	toolGetStatus:                 "get status",
	toolGetLock:                   "get lock details",
	toolLockDoor:                  "lock door",
	toolUnlockDoor:                "unlock door",
	toolGetLockStatus:             "get lock status",
	toolCreateAccessCode:          "create access code",
	toolCreateAccessCodesMultiple: "create access codes",
	toolListAccessCodes:           "list access codes",
	toolDeleteAccessCode:          "delete access code",
	toolUpdateAccessCode:          "update access code",
}

func toolFailureLabel(tool string) string {
	if label, ok := toolFailureLabels[tool]; ok {
		return label
	}
	return strings.ReplaceAll(tool, "_", " ")
}

type toolContract struct {
	Summary  string
	Purpose  string
	UseWhen  string
	Requires string
	Effects  string
	Next     string
}

func formatToolDescription(spec toolContract) string {
	lines := []string{strings.TrimSpace(spec.Summary)}
	lines = append(lines,
		"Purpose: "+spec.Purpose,
		"Use when: "+spec.UseWhen,
		"Requires: "+spec.Requires,
		"Effects: "+spec.Effects,
		"Retry: "+retryLine,
		"Next: "+spec.Next,
	)
	return strings.Join(lines, "\n")
}

const (
	retryLine          = "This server never retries. A retryable=true error envelope means the Seam API reported a transient condition; decide yourself whether to call again."
	isoTimestampsLine  = "Timestamps are ISO 8601 strings (e.g. `2025-01-01T16:00:00Z`) and are forwarded verbatim without local validation."
	actionAttemptsLine = "The returned action_attempt is usually still `pending`; this server does not poll it to completion."
)

func buildToolDescriptions() map[string]string {
	return map[string]string{
		toolListLocks: formatToolDescription(toolContract{
			Summary:  "List all smart locks connected to your Seam account",
			Purpose:  "Enumerate locks with identifier, name, manufacturer, model, locked state, battery level and connectivity.",
			UseWhen:  "You need device ids for other tools or a quick inventory.",
			Requires: "No arguments.",
			Effects:  "Read-only. One call to Seam /locks/list.",
			Next:     "Use `get_lock` for details on one lock or `get_status` for an aggregated overview.",
		}),
		toolGetStatus: formatToolDescription(toolContract{
			Summary:  "Get a comprehensive status overview of all locks including battery levels, lock states, and any issues",
			Purpose:  "Summarize locked/unlocked counts, locked percentage, online/offline counts, low (<30%) and medium (30-60%) battery tiers and locks reporting errors or warnings.",
			UseWhen:  "You need a fleet-wide health check.",
			Requires: "No arguments.",
			Effects:  "Read-only. All figures are derived from a single /locks/list snapshot.",
			Next:     "Inspect individual problem locks with `get_lock`.",
		}),
		toolGetLock: formatToolDescription(toolContract{
			Summary:  "Get detailed information about a specific lock",
			Purpose:  "Return one lock including location, creation time, capabilities, errors and warnings.",
			UseWhen:  "You need details about a single lock.",
			Requires: "`device_id` is required.",
			Effects:  "Read-only. One call to Seam /locks/get. An unknown id surfaces the Seam not-found error.",
			Next:     "Use `lock_door`, `unlock_door` or the access code tools on this device.",
		}),
		toolLockDoor: formatToolDescription(toolContract{
			Summary:  "Lock a specific door",
			Purpose:  "Send a lock command to one device.",
			UseWhen:  "The user asks to lock a door.",
			Requires: "`device_id` is required.",
			Effects:  "Physical side effect. " + actionAttemptsLine,
			Next:     "Confirm the result later with `get_lock_status`.",
		}),
		toolUnlockDoor: formatToolDescription(toolContract{
			Summary:  "Unlock a specific door",
			Purpose:  "Send an unlock command to one device.",
			UseWhen:  "The user explicitly asks to unlock a door.",
			Requires: "`device_id` is required.",
			Effects:  "Physical side effect. " + actionAttemptsLine,
			Next:     "Confirm the result later with `get_lock_status`.",
		}),
		toolGetLockStatus: formatToolDescription(toolContract{
			Summary:  "Get the current lock status (locked/unlocked) of a specific lock",
			Purpose:  "Report whether one lock is locked, with battery level and connectivity.",
			UseWhen:  "You need the current state of one lock. A lock that does not report `locked=true` is shown as unlocked.",
			Requires: "`device_id` is required.",
			Effects:  "Read-only. One call to Seam /locks/get.",
			Next:     "Use `lock_door` or `unlock_door` to change the state.",
		}),
		toolCreateAccessCode: formatToolDescription(toolContract{
			Summary:  "Create an access code on a specific lock with optional time limits",
			Purpose:  "Program a PIN code on one lock. Omit `code` to let Seam generate one.",
			UseWhen:  "A guest, cleaner or contractor needs a code for one lock.",
			Requires: "`device_id` and `name` are required. `code`, `starts_at` and `ends_at` are optional. " + isoTimestampsLine,
			Effects:  "Fetches the lock first and fails without creating anything when it cannot program online access codes. Otherwise one call to /access_codes/create.",
			Next:     "Use `list_access_codes` to see programming status.",
		}),
		toolCreateAccessCodesMultiple: formatToolDescription(toolContract{
			Summary:  "Create the same access code on multiple locks (useful for creating one code for all locks in a location)",
			Purpose:  "Program one named code on several locks in a single batch call.",
			UseWhen:  "A code must open several doors, for example every lock in one building.",
			Requires: "`name` is required. Supply `device_ids`, or `location_filter` to match locks by location name, timezone or lock name (case-insensitive substring). When `location_filter` is set it replaces `device_ids`. " + isoTimestampsLine,
			Effects:  "Fails without creating anything when the filter matches no lock or no device ids remain. The batch succeeds or fails as a whole.",
			Next:     "Use `list_access_codes` per device to check programming status.",
		}),
		toolListAccessCodes: formatToolDescription(toolContract{
			Summary:  "List all access codes, optionally filtered by device",
			Purpose:  "List access codes with validity window, status and type.",
			UseWhen:  "You need access code ids for update/delete or an audit of codes.",
			Requires: "`device_id` is optional.",
			Effects:  "Read-only. One call to /access_codes/list; pagination is not followed.",
			Next:     "Use `update_access_code` or `delete_access_code` with the returned ids.",
		}),
		toolDeleteAccessCode: formatToolDescription(toolContract{
			Summary:  "Delete an access code from a lock",
			Purpose:  "Remove one access code.",
			UseWhen:  "A code must stop working.",
			Requires: "`access_code_id` is required.",
			Effects:  "Destructive, no confirmation step. Deleting an already deleted code returns the Seam error.",
			Next:     "Verify with `list_access_codes`.",
		}),
		toolUpdateAccessCode: formatToolDescription(toolContract{
			Summary:  "Update an existing access code (change name, code, or time limits)",
			Purpose:  "Change selected fields of one access code.",
			UseWhen:  "A code needs a new name, PIN or validity window.",
			Requires: "`access_code_id` is required. Only the supplied fields among `name`, `code`, `starts_at` and `ends_at` are sent; omitted fields keep their current values. " + isoTimestampsLine,
			Effects:  "One call to /access_codes/update. There is no read-after-write check.",
			Next:     "Verify with `list_access_codes`.",
		}),
	}
}
