package mcp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"pkt.systems/seammcp/seam"
)

func TestCreateAccessCodeRejectsUnsupportedLock(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, _, err := s.handleCreateAccessCodeTool(context.Background(), nil, createAccessCodeToolInput{DeviceID: "B", Name: "Guest"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if valErr.Reason != "Lock B does not support online access codes" {
		t.Fatalf("unexpected reason %q", valErr.Reason)
	}
	if fake.called("CreateAccessCode") != 0 {
		t.Fatalf("create must not be called for unsupported lock")
	}
}

func TestCreateAccessCodeForwardsOnlySuppliedFields(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, out, err := s.handleCreateAccessCodeTool(context.Background(), nil, createAccessCodeToolInput{
		DeviceID: "A",
		Name:     "Guest",
		EndsAt:   "2025-01-22T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("create access code: %v", err)
	}
	if out.Status != "success" || out.Message != "Created access code 'Guest' on Front Door" {
		t.Fatalf("unexpected output %+v", out)
	}
	if out.AccessCode.AccessCodeID != "ac_A" || out.AccessCode.Code != "0000" {
		t.Fatalf("unexpected access code %+v", out.AccessCode)
	}
	params := fake.createParams[0]
	if params.Code != nil || params.StartsAt != nil {
		t.Fatalf("expected omitted optional fields, got %+v", params)
	}
	if params.EndsAt == nil || *params.EndsAt != "2025-01-22T12:00:00Z" {
		t.Fatalf("expected ends_at verbatim, got %+v", params.EndsAt)
	}
}

func TestCreateAccessCodeRequiresName(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, _, err := s.handleCreateAccessCodeTool(context.Background(), nil, createAccessCodeToolInput{DeviceID: "A"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no remote calls, got %v", fake.calls)
	}
}

func TestCreateAccessCodesWithDeviceIDs(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, out, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{
		DeviceIDs: []string{"A", " C "},
		Name:      "Cleaner",
		Code:      "1111",
	})
	if err != nil {
		t.Fatalf("create access codes: %v", err)
	}
	if out.TotalCodesCreated != 2 || len(out.AccessCodes) != 2 {
		t.Fatalf("unexpected output %+v", out)
	}
	if out.Message != "Created access code 'Cleaner' on 2 lock(s)" {
		t.Fatalf("unexpected message %q", out.Message)
	}
	if got := fake.createMulti[0].DeviceIDs; !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Fatalf("unexpected device ids %v", got)
	}
	if fake.called("ListLocks") != 0 {
		t.Fatalf("explicit ids must not list locks")
	}
}

func TestCreateAccessCodesLocationFilterOverridesIDs(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, out, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{
		DeviceIDs:      []string{"B"},
		Name:           "Seattle",
		LocationFilter: "SEATTLE",
	})
	if err != nil {
		t.Fatalf("create access codes: %v", err)
	}
	if got := fake.createMulti[0].DeviceIDs; !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("expected filter matches only, got %v", got)
	}
	if out.TotalCodesCreated != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestCreateAccessCodesLocationFilterMatchesTimezoneAndName(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)

	if _, _, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{Name: "x", LocationFilter: "stockholm"}); err != nil {
		t.Fatalf("timezone filter: %v", err)
	}
	if _, _, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{Name: "x", LocationFilter: "building a"}); err != nil {
		t.Fatalf("name filter: %v", err)
	}
	if got := fake.createMulti[0].DeviceIDs; !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("timezone filter matched %v", got)
	}
	if got := fake.createMulti[1].DeviceIDs; !reflect.DeepEqual(got, []string{"C"}) {
		t.Fatalf("name filter matched %v", got)
	}
}

func TestCreateAccessCodesFilterWithoutMatches(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, _, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{
		DeviceIDs:      []string{"A"},
		Name:           "Nowhere",
		LocationFilter: "Atlantis",
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if valErr.Reason != "No locks found matching location filter: 'Atlantis'" {
		t.Fatalf("unexpected reason %q", valErr.Reason)
	}
	if fake.called("CreateMultipleAccessCodes") != 0 {
		t.Fatalf("create must not be called when the filter matches nothing")
	}
}

func TestCreateAccessCodesWithoutTargets(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{locks: sampleLocks()}
	s := newFakeToolServer(t, fake)
	_, _, err := s.handleCreateAccessCodesTool(context.Background(), nil, createAccessCodesToolInput{Name: "Nobody"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Reason != "No device IDs provided" {
		t.Fatalf("expected 'No device IDs provided', got %v", err)
	}
	if fake.called("CreateMultipleAccessCodes") != 0 {
		t.Fatalf("create must not be called without targets")
	}
}

func TestListAccessCodesTool(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{codes: []seam.AccessCode{
		{AccessCodeID: "ac_1", DeviceID: "A", Name: "Guest", Code: "1234", Type: "time_bound", Status: "set"},
		{AccessCodeID: "ac_2", DeviceID: "B", Name: "Owner", Code: "9999", Type: "ongoing", Status: "set"},
	}}
	s := newFakeToolServer(t, fake)

	_, all, err := s.handleListAccessCodesTool(context.Background(), nil, listAccessCodesToolInput{})
	if err != nil {
		t.Fatalf("list access codes: %v", err)
	}
	if all.TotalCodes != 2 || all.AccessCodes[0].Type != "time_bound" {
		t.Fatalf("unexpected output %+v", all)
	}
	if fake.listCodesParams[0].DeviceID != nil {
		t.Fatalf("expected unfiltered call")
	}

	_, filtered, err := s.handleListAccessCodesTool(context.Background(), nil, listAccessCodesToolInput{DeviceID: "B"})
	if err != nil {
		t.Fatalf("list access codes: %v", err)
	}
	if filtered.TotalCodes != 1 || filtered.AccessCodes[0].AccessCodeID != "ac_2" {
		t.Fatalf("unexpected filtered output %+v", filtered)
	}
	if filtered.AccessCodes == nil {
		t.Fatalf("expected non-nil list")
	}
}

func TestDeleteAccessCodeTool(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{}
	s := newFakeToolServer(t, fake)
	_, out, err := s.handleDeleteAccessCodeTool(context.Background(), nil, accessCodeIDToolInput{AccessCodeID: "ac_9"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.Message != "Successfully deleted access code ac_9" || fake.deleted[0] != "ac_9" {
		t.Fatalf("unexpected output %+v deleted=%v", out, fake.deleted)
	}

	fake.writeErr = &seam.APIError{Status: 404, Type: "access_code_not_found", Message: "Access code not found"}
	if _, _, err := s.handleDeleteAccessCodeTool(context.Background(), nil, accessCodeIDToolInput{AccessCodeID: "ac_9"}); !seam.IsNotFound(err) {
		t.Fatalf("expected remote not-found error on repeat delete, got %v", err)
	}
}

func TestUpdateAccessCodeSparsePatch(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{}
	s := newFakeToolServer(t, fake)
	_, out, err := s.handleUpdateAccessCodeTool(context.Background(), nil, updateAccessCodeToolInput{
		AccessCodeID: "ac_1",
		Name:         "Renamed",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Message != "Successfully updated access code ac_1" {
		t.Fatalf("unexpected message %q", out.Message)
	}
	params := fake.updateParams[0]
	if params.AccessCodeID != "ac_1" || params.Name == nil || *params.Name != "Renamed" {
		t.Fatalf("unexpected params %+v", params)
	}
	if params.Code != nil || params.StartsAt != nil || params.EndsAt != nil {
		t.Fatalf("expected only id and name, got %+v", params)
	}
}

func TestUpdateAccessCodeRequiresID(t *testing.T) {
	t.Parallel()

	fake := &fakeSeam{}
	s := newFakeToolServer(t, fake)
	_, _, err := s.handleUpdateAccessCodeTool(context.Background(), nil, updateAccessCodeToolInput{Name: "x"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "access_code_id" {
		t.Fatalf("expected access_code_id validation error, got %v", err)
	}
	if fake.called("UpdateAccessCode") != 0 {
		t.Fatalf("update must not be called")
	}
}

func TestMatchesLocationFilter(t *testing.T) {
	t.Parallel()

	lock := seam.Lock{
		DeviceID:   "Z",
		Properties: seam.LockProperties{Name: "Lobby"},
		Location:   &seam.Location{LocationName: "Oslo Office", Timezone: "Europe/Oslo"},
	}
	cases := map[string]bool{
		"oslo":   true,
		"OFFICE": true,
		"lob":    true,
		"europe": false,
		"Z":      false,
	}
	for filter, want := range cases {
		if got := matchesLocationFilter(lock, filter); got != want {
			t.Fatalf("matchesLocationFilter(%q)=%v, want %v", filter, got, want)
		}
	}
}
