package seam

import (
	"context"
	"fmt"
	"strings"
)

type accessCodeResponse struct {
	AccessCode *AccessCode `json:"access_code"`
}

type accessCodesResponse struct {
	AccessCodes []AccessCode `json:"access_codes"`
}

type accessCodeIDRequest struct {
	AccessCodeID string `json:"access_code_id"`
}

// CreateAccessCode programs a new access code on one device.
func (c *Client) CreateAccessCode(ctx context.Context, params CreateAccessCodeParams) (*AccessCode, error) {
	if _, err := requireID("device_id", params.DeviceID); err != nil {
		return nil, err
	}
	var resp accessCodeResponse
	if err := c.postJSON(ctx, "/access_codes/create", params, &resp); err != nil {
		return nil, err
	}
	if resp.AccessCode == nil {
		return nil, fmt.Errorf("seam: /access_codes/create returned no access code")
	}
	return resp.AccessCode, nil
}

// CreateMultipleAccessCodes programs one logical code on several devices in a
// single batch call. The batch succeeds or fails as a whole.
func (c *Client) CreateMultipleAccessCodes(ctx context.Context, params CreateMultipleAccessCodesParams) ([]AccessCode, error) {
	if len(params.DeviceIDs) == 0 {
		return nil, fmt.Errorf("seam: device_ids required")
	}
	for _, id := range params.DeviceIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("seam: device_ids must not contain blank ids")
		}
	}
	var resp accessCodesResponse
	if err := c.postJSON(ctx, "/access_codes/create_multiple", params, &resp); err != nil {
		return nil, err
	}
	if resp.AccessCodes == nil {
		return []AccessCode{}, nil
	}
	return resp.AccessCodes, nil
}

// ListAccessCodes lists access codes, optionally for one device. Pagination
// is not followed.
func (c *Client) ListAccessCodes(ctx context.Context, params ListAccessCodesParams) ([]AccessCode, error) {
	var resp accessCodesResponse
	if err := c.postJSON(ctx, "/access_codes/list", params, &resp); err != nil {
		return nil, err
	}
	if resp.AccessCodes == nil {
		return []AccessCode{}, nil
	}
	return resp.AccessCodes, nil
}

// UpdateAccessCode applies a sparse update.
func (c *Client) UpdateAccessCode(ctx context.Context, params UpdateAccessCodeParams) error {
	if _, err := requireID("access_code_id", params.AccessCodeID); err != nil {
		return err
	}
	return c.postJSON(ctx, "/access_codes/update", params, nil)
}

// DeleteAccessCode removes an access code. Deleting an already deleted code
// returns whatever error the API reports.
func (c *Client) DeleteAccessCode(ctx context.Context, accessCodeID string) error {
	accessCodeID, err := requireID("access_code_id", accessCodeID)
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "/access_codes/delete", accessCodeIDRequest{AccessCodeID: accessCodeID}, nil)
}
