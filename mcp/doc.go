// Package mcp serves the Seam smart-lock API as Model Context Protocol tools.
//
// Eleven tools are registered: list_locks, get_status, get_lock, lock_door,
// unlock_door, get_lock_status, create_access_code,
// create_access_code_on_multiple_locks, list_access_codes,
// delete_access_code and update_access_code. Each tool validates its input,
// performs at most two Seam API calls and returns a reshaped result. Failures
// surface as tool errors carrying a JSON envelope:
//
//	{"error":{"error_code":"remote_error","tool":"list_locks","detail":"Failed to list locks: ...","retryable":false}}
//
// The Seam client is created lazily on the first tool call that needs it, so
// a server without an API key starts fine and reports a configuration_error
// per call instead.
package mcp
