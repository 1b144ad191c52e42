package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	docOverviewURI    = "resource://docs/overview.md"
	docAccessCodesURI = "resource://docs/access-codes.md"
)

func defaultServerInstructions() string {
	return strings.TrimSpace(fmt.Sprintf(`
Seam smart lock MCP server:
- Discovery: call list_locks for device ids, or get_status for a fleet overview (lock states, connectivity, battery tiers, issues).
- Single lock: get_lock for details, get_lock_status for locked/unlocked, lock_door and unlock_door for commands.
- Door commands return a pending action_attempt; confirm the outcome later with get_lock_status.
- Access codes: create_access_code (one lock), create_access_code_on_multiple_locks (device_ids or location_filter), list_access_codes, update_access_code (sparse), delete_access_code.
- Failures carry a JSON envelope {"error":{"error_code","tool","detail","retryable"}}. error_code is configuration_error, invalid_argument or remote_error. Nothing is retried by this server.
- Documentation resources: %s, %s
`, docOverviewURI, docAccessCodesURI))
}

func (s *server) registerResources(srv *mcpsdk.Server) {
	for _, uri := range s.resourceURIs() {
		srv.AddResource(&mcpsdk.Resource{
			URI:         uri,
			Name:        uri,
			Title:       uri,
			Description: "Seam MCP operational documentation",
			MIMEType:    "text/markdown",
		}, s.handleDocResource)
	}
}

func (s *server) resourceURIs() []string {
	docs := s.resourceDocs()
	uris := make([]string, 0, len(docs))
	for uri := range docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *server) resourceDocs() map[string]string {
	return map[string]string{
		docOverviewURI: strings.TrimSpace(`
# Seam MCP Overview

Every tool maps to one or two Seam API calls. Results are reshaped JSON; nothing
is cached between calls.

Lock fields:
- name falls back to device_id when the lock has no name.
- locked, battery_level and online are omitted when Seam does not report them.
- battery_level is a fraction in [0,1]; get_status renders it as a percentage.

get_status:
1. lock_states.locked_percentage is round(locked / total * 100), 0 for an empty account.
2. Locks with unknown locked or online values are counted in neither bucket.
3. Battery tiers: low below 30%, medium from 30% up to 60%. Locks without a battery level are in neither tier.

Door commands:
- lock_door and unlock_door return the Seam action_attempt, normally with status pending.
- Poll get_lock_status if the outcome matters.

Errors:
- configuration_error: the Seam API key is missing. Fix the server configuration; retrying will not help.
- invalid_argument: a required argument is missing or a selection matched nothing. Nothing was changed remotely.
- remote_error: Seam rejected the call or could not be reached. http_status, request_id and seam_error_type are included when known.
`),
		docAccessCodesURI: strings.TrimSpace(`
# Access Code Workflow

Create on one lock:
1. create_access_code with device_id and name. Omit code to let Seam generate one.
2. The lock is fetched first; locks with can_program_online_access_codes=false are rejected before anything is created.

Create on several locks:
1. create_access_code_on_multiple_locks with name and device_ids, or with location_filter.
2. location_filter is a case-insensitive substring matched against the location name
   (the timezone when the location has no name) and the lock name.
3. When location_filter is set, device_ids is ignored.
4. A filter that matches nothing fails with invalid_argument and creates nothing.
5. The batch succeeds or fails as a whole.

Update:
- update_access_code sends only the fields you supply. Omitted fields keep their current values.

Timestamps:
- starts_at and ends_at are ISO 8601 strings such as 2025-01-01T16:00:00Z and are passed to Seam verbatim.
`),
	}
}

func (s *server) handleDocResource(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	uri := ""
	if req != nil && req.Params != nil {
		uri = strings.TrimSpace(req.Params.URI)
	}
	content, ok := s.resourceDocs()[uri]
	if !ok {
		return nil, mcpsdk.ResourceNotFoundError(uri)
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     content,
		}},
	}, nil
}
