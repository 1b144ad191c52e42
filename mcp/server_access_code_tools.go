package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/seammcp/seam"
)

type accessCodeView struct {
	AccessCodeID string `json:"access_code_id"`
	Code         string `json:"code,omitempty"`
	Name         string `json:"name,omitempty"`
	DeviceID     string `json:"device_id"`
	StartsAt     string `json:"starts_at,omitempty"`
	EndsAt       string `json:"ends_at,omitempty"`
	Status       string `json:"status,omitempty"`
	Type         string `json:"type,omitempty"`
}

func viewAccessCode(ac seam.AccessCode) accessCodeView {
	return accessCodeView{
		AccessCodeID: ac.AccessCodeID,
		Code:         ac.Code,
		Name:         ac.Name,
		DeviceID:     ac.DeviceID,
		StartsAt:     ac.StartsAt,
		EndsAt:       ac.EndsAt,
		Status:       ac.Status,
	}
}

type createAccessCodeToolInput struct {
	DeviceID string `json:"device_id" jsonschema:"The device ID of the lock"`
	Code     string `json:"code,omitempty" jsonschema:"The PIN code (e.g. '1234'). If not provided, a random code will be generated"`
	Name     string `json:"name" jsonschema:"Name/label for the access code (e.g. 'Guest Code', 'Cleaner')"`
	StartsAt string `json:"starts_at,omitempty" jsonschema:"When the code becomes active (ISO 8601 format, e.g. '2025-01-01T16:00:00Z')"`
	EndsAt   string `json:"ends_at,omitempty" jsonschema:"When the code expires (ISO 8601 format, e.g. '2025-01-22T12:00:00Z')"`
}

type createAccessCodeToolOutput struct {
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	AccessCode accessCodeView `json:"access_code"`
}

func (s *server) handleCreateAccessCodeTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input createAccessCodeToolInput) (*mcpsdk.CallToolResult, createAccessCodeToolOutput, error) {
	deviceID, err := requireString("device_id", input.DeviceID)
	if err != nil {
		return nil, createAccessCodeToolOutput{}, err
	}
	name, err := requireString("name", input.Name)
	if err != nil {
		return nil, createAccessCodeToolOutput{}, err
	}
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, createAccessCodeToolOutput{}, err
	}
	lock, err := cli.GetLock(ctx, deviceID)
	if err != nil {
		return nil, createAccessCodeToolOutput{}, err
	}
	if !lock.CanProgramOnlineAccessCodes {
		return nil, createAccessCodeToolOutput{}, &ValidationError{
			Field:  "device_id",
			Reason: fmt.Sprintf("Lock %s does not support online access codes", lock.Name()),
		}
	}
	created, err := cli.CreateAccessCode(ctx, seam.CreateAccessCodeParams{
		DeviceID: deviceID,
		Name:     name,
		Code:     seam.OptString(input.Code),
		StartsAt: seam.OptString(input.StartsAt),
		EndsAt:   seam.OptString(input.EndsAt),
	})
	if err != nil {
		return nil, createAccessCodeToolOutput{}, err
	}
	s.toolLog.Info("mcp.tool.create_access_code.created", "device_id", deviceID, "access_code_id", created.AccessCodeID)
	return nil, createAccessCodeToolOutput{
		Status:     "success",
		Message:    fmt.Sprintf("Created access code '%s' on %s", name, lock.Name()),
		AccessCode: viewAccessCode(*created),
	}, nil
}

type createAccessCodesToolInput struct {
	DeviceIDs      []string `json:"device_ids,omitempty" jsonschema:"Array of device IDs to create the access code on. Ignored when location_filter is set"`
	Code           string   `json:"code,omitempty" jsonschema:"The PIN code (e.g. '1234'). If not provided, random codes will be generated"`
	Name           string   `json:"name" jsonschema:"Name/label for the access code (e.g. 'Guest Code', 'Seattle Locks')"`
	StartsAt       string   `json:"starts_at,omitempty" jsonschema:"When the code becomes active (ISO 8601 format)"`
	EndsAt         string   `json:"ends_at,omitempty" jsonschema:"When the code expires (ISO 8601 format)"`
	LocationFilter string   `json:"location_filter,omitempty" jsonschema:"Optional: filter locks by location name, timezone or lock name (e.g. 'Seattle', 'Building A')"`
}

type createAccessCodesToolOutput struct {
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	AccessCodes       []accessCodeView `json:"access_codes"`
	TotalCodesCreated int              `json:"total_codes_created"`
}

func (s *server) handleCreateAccessCodesTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input createAccessCodesToolInput) (*mcpsdk.CallToolResult, createAccessCodesToolOutput, error) {
	name, err := requireString("name", input.Name)
	if err != nil {
		return nil, createAccessCodesToolOutput{}, err
	}
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, createAccessCodesToolOutput{}, err
	}

	deviceIDs, err := s.resolveDeviceIDs(ctx, cli, input.DeviceIDs, input.LocationFilter)
	if err != nil {
		return nil, createAccessCodesToolOutput{}, err
	}

	created, err := cli.CreateMultipleAccessCodes(ctx, seam.CreateMultipleAccessCodesParams{
		DeviceIDs: deviceIDs,
		Name:      name,
		Code:      seam.OptString(input.Code),
		StartsAt:  seam.OptString(input.StartsAt),
		EndsAt:    seam.OptString(input.EndsAt),
	})
	if err != nil {
		return nil, createAccessCodesToolOutput{}, err
	}
	out := createAccessCodesToolOutput{
		Status:            "success",
		Message:           fmt.Sprintf("Created access code '%s' on %d lock(s)", name, len(deviceIDs)),
		AccessCodes:       make([]accessCodeView, 0, len(created)),
		TotalCodesCreated: len(created),
	}
	for _, ac := range created {
		out.AccessCodes = append(out.AccessCodes, viewAccessCode(ac))
	}
	s.toolLog.Info("mcp.tool.create_access_codes.created", "devices", len(deviceIDs), "codes", len(created))
	return nil, out, nil
}

// resolveDeviceIDs picks the target devices. A non-empty location filter
// replaces the explicit ids with every lock it matches.
func (s *server) resolveDeviceIDs(ctx context.Context, cli SeamAPI, explicit []string, locationFilter string) ([]string, error) {
	if filter := strings.TrimSpace(locationFilter); filter != "" {
		locks, err := cli.ListLocks(ctx)
		if err != nil {
			return nil, err
		}
		matched := make([]string, 0, len(locks))
		for _, lock := range locks {
			if matchesLocationFilter(lock, filter) {
				matched = append(matched, lock.DeviceID)
			}
		}
		if len(matched) == 0 {
			return nil, &ValidationError{
				Field:  "location_filter",
				Reason: fmt.Sprintf("No locks found matching location filter: '%s'", filter),
			}
		}
		if len(explicit) > 0 {
			s.toolLog.Debug("mcp.tool.create_access_codes.device_ids_ignored", "device_ids", len(explicit), "location_filter", filter)
		}
		return matched, nil
	}

	ids := make([]string, 0, len(explicit))
	for _, id := range explicit {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, &ValidationError{Field: "device_ids", Reason: "device_ids must not contain blank values"}
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "device_ids", Reason: "No device IDs provided"}
	}
	return ids, nil
}

// matchesLocationFilter reports whether filter is a case-insensitive
// substring of the lock's location name (timezone when the name is empty) or
// of its properties.name.
func matchesLocationFilter(lock seam.Lock, filter string) bool {
	needle := strings.ToLower(filter)
	location := ""
	if lock.Location != nil {
		location = lock.Location.LocationName
		if location == "" {
			location = lock.Location.Timezone
		}
	}
	return strings.Contains(strings.ToLower(location), needle) ||
		strings.Contains(strings.ToLower(lock.Properties.Name), needle)
}

type listAccessCodesToolInput struct {
	DeviceID string `json:"device_id,omitempty" jsonschema:"Optional: filter by specific device ID"`
}

type listAccessCodesToolOutput struct {
	TotalCodes  int              `json:"total_codes"`
	AccessCodes []accessCodeView `json:"access_codes"`
}

func (s *server) handleListAccessCodesTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input listAccessCodesToolInput) (*mcpsdk.CallToolResult, listAccessCodesToolOutput, error) {
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, listAccessCodesToolOutput{}, err
	}
	codes, err := cli.ListAccessCodes(ctx, seam.ListAccessCodesParams{DeviceID: seam.OptString(strings.TrimSpace(input.DeviceID))})
	if err != nil {
		return nil, listAccessCodesToolOutput{}, err
	}
	out := listAccessCodesToolOutput{TotalCodes: len(codes), AccessCodes: make([]accessCodeView, 0, len(codes))}
	for _, ac := range codes {
		view := viewAccessCode(ac)
		view.Type = ac.Type
		out.AccessCodes = append(out.AccessCodes, view)
	}
	return nil, out, nil
}

type accessCodeIDToolInput struct {
	AccessCodeID string `json:"access_code_id" jsonschema:"The ID of the access code to delete"`
}

type confirmationToolOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *server) handleDeleteAccessCodeTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input accessCodeIDToolInput) (*mcpsdk.CallToolResult, confirmationToolOutput, error) {
	id, err := requireString("access_code_id", input.AccessCodeID)
	if err != nil {
		return nil, confirmationToolOutput{}, err
	}
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, confirmationToolOutput{}, err
	}
	if err := cli.DeleteAccessCode(ctx, id); err != nil {
		return nil, confirmationToolOutput{}, err
	}
	s.toolLog.Info("mcp.tool.delete_access_code.deleted", "access_code_id", id)
	return nil, confirmationToolOutput{
		Status:  "success",
		Message: "Successfully deleted access code " + id,
	}, nil
}

type updateAccessCodeToolInput struct {
	AccessCodeID string `json:"access_code_id" jsonschema:"The ID of the access code to update"`
	Name         string `json:"name,omitempty" jsonschema:"New name for the access code"`
	Code         string `json:"code,omitempty" jsonschema:"New PIN code"`
	StartsAt     string `json:"starts_at,omitempty" jsonschema:"New start time (ISO 8601 format)"`
	EndsAt       string `json:"ends_at,omitempty" jsonschema:"New end time (ISO 8601 format)"`
}

func (s *server) handleUpdateAccessCodeTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input updateAccessCodeToolInput) (*mcpsdk.CallToolResult, confirmationToolOutput, error) {
	id, err := requireString("access_code_id", input.AccessCodeID)
	if err != nil {
		return nil, confirmationToolOutput{}, err
	}
	cli, err := s.clients.Client(ctx)
	if err != nil {
		return nil, confirmationToolOutput{}, err
	}
	params := seam.UpdateAccessCodeParams{
		AccessCodeID: id,
		Name:         seam.OptString(input.Name),
		Code:         seam.OptString(input.Code),
		StartsAt:     seam.OptString(input.StartsAt),
		EndsAt:       seam.OptString(input.EndsAt),
	}
	if err := cli.UpdateAccessCode(ctx, params); err != nil {
		return nil, confirmationToolOutput{}, err
	}
	s.toolLog.Info("mcp.tool.update_access_code.updated", "access_code_id", id)
	return nil, confirmationToolOutput{
		Status:  "success",
		Message: "Successfully updated access code " + id,
	}, nil
}
