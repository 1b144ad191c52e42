package mcp

import (
	"context"
	"sync"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/seam"
)

type fakeSeam struct {
	mu sync.Mutex

	locks    []seam.Lock
	codes    []seam.AccessCode
	listErr  error
	getErr   error
	writeErr error

	calls           []string
	createParams    []seam.CreateAccessCodeParams
	createMulti     []seam.CreateMultipleAccessCodesParams
	listCodesParams []seam.ListAccessCodesParams
	updateParams    []seam.UpdateAccessCodeParams
	deleted         []string
}

func (f *fakeSeam) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSeam) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSeam) ListLocks(context.Context) ([]seam.Lock, error) {
	f.record("ListLocks")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]seam.Lock(nil), f.locks...), nil
}

func (f *fakeSeam) GetLock(_ context.Context, deviceID string) (*seam.Lock, error) {
	f.record("GetLock")
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, lock := range f.locks {
		if lock.DeviceID == deviceID {
			l := lock
			return &l, nil
		}
	}
	return nil, &seam.APIError{Status: 404, Type: "device_not_found", Message: "Device not found", RequestID: "req_missing"}
}

func (f *fakeSeam) LockDoor(_ context.Context, deviceID string) (*seam.ActionAttempt, error) {
	f.record("LockDoor")
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &seam.ActionAttempt{
		ActionAttemptID: "aa_lock_" + deviceID,
		ActionType:      "LOCK_DOOR",
		Status:          "pending",
		Raw:             map[string]any{"action_attempt_id": "aa_lock_" + deviceID, "action_type": "LOCK_DOOR", "status": "pending"},
	}, nil
}

func (f *fakeSeam) UnlockDoor(_ context.Context, deviceID string) (*seam.ActionAttempt, error) {
	f.record("UnlockDoor")
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &seam.ActionAttempt{ActionAttemptID: "aa_unlock_" + deviceID, ActionType: "UNLOCK_DOOR", Status: "pending"}, nil
}

func (f *fakeSeam) CreateAccessCode(_ context.Context, params seam.CreateAccessCodeParams) (*seam.AccessCode, error) {
	f.record("CreateAccessCode")
	f.mu.Lock()
	f.createParams = append(f.createParams, params)
	f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	code := "0000"
	if params.Code != nil {
		code = *params.Code
	}
	return &seam.AccessCode{AccessCodeID: "ac_" + params.DeviceID, DeviceID: params.DeviceID, Name: params.Name, Code: code, Status: "setting"}, nil
}

func (f *fakeSeam) CreateMultipleAccessCodes(_ context.Context, params seam.CreateMultipleAccessCodesParams) ([]seam.AccessCode, error) {
	f.record("CreateMultipleAccessCodes")
	f.mu.Lock()
	f.createMulti = append(f.createMulti, params)
	f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	out := make([]seam.AccessCode, 0, len(params.DeviceIDs))
	for _, id := range params.DeviceIDs {
		out = append(out, seam.AccessCode{AccessCodeID: "ac_" + id, DeviceID: id, Name: params.Name, Code: "1111", Status: "setting"})
	}
	return out, nil
}

func (f *fakeSeam) ListAccessCodes(_ context.Context, params seam.ListAccessCodesParams) ([]seam.AccessCode, error) {
	f.record("ListAccessCodes")
	f.mu.Lock()
	f.listCodesParams = append(f.listCodesParams, params)
	f.mu.Unlock()
	if params.DeviceID == nil {
		return append([]seam.AccessCode(nil), f.codes...), nil
	}
	var out []seam.AccessCode
	for _, c := range f.codes {
		if c.DeviceID == *params.DeviceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSeam) UpdateAccessCode(_ context.Context, params seam.UpdateAccessCodeParams) error {
	f.record("UpdateAccessCode")
	f.mu.Lock()
	f.updateParams = append(f.updateParams, params)
	f.mu.Unlock()
	return f.writeErr
}

func (f *fakeSeam) DeleteAccessCode(_ context.Context, accessCodeID string) error {
	f.record("DeleteAccessCode")
	f.mu.Lock()
	f.deleted = append(f.deleted, accessCodeID)
	f.mu.Unlock()
	return f.writeErr
}

func newFakeToolServer(t *testing.T, fake *fakeSeam) *server {
	t.Helper()
	cfg := Config{SeamAPIKey: "seam_test_key"}
	applyDefaults(&cfg)
	return newServer(cfg, pslog.NoopLogger(), func(string) (SeamAPI, error) {
		return fake, nil
	}, nil)
}

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }
