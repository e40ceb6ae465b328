package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/okellen/appointed/internal/api"
	"github.com/okellen/appointed/internal/session"
)

// fakeService is a minimal in-memory appointment service.
type fakeService struct {
	appointments []map[string]any
	nextID       int
	requests     int
	failUpdate   int // status code to force on PUT, 0 means succeed
}

func (f *fakeService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(f.appointments)
		case r.Method == http.MethodPost:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.nextID++
			appt := map[string]any{
				"id":       f.nextID,
				"startime": body["startime"],
				"endtime":  body["endtime"],
				"purpose":  body["purpose"],
				"username": "alice",
			}
			f.appointments = append(f.appointments, appt)
			json.NewEncoder(w).Encode(appt)
		case r.Method == http.MethodPut:
			if f.failUpdate != 0 {
				w.WriteHeader(f.failUpdate)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Item not found"})
				return
			}
			id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/appointments/"))
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			for i, appt := range f.appointments {
				if appt["id"] == id || fmt.Sprint(appt["id"]) == fmt.Sprint(id) {
					updated := map[string]any{
						"id":       id,
						"startime": body["startime"],
						"endtime":  body["endtime"],
						"purpose":  body["purpose"],
						"username": appt["username"],
					}
					f.appointments[i] = updated
					json.NewEncoder(w).Encode(updated)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Item not found"})
		}
	})
}

func (f *fakeService) seed(id int, purpose string) {
	f.appointments = append(f.appointments, map[string]any{
		"id":       id,
		"startime": "2024-06-01T09:00:00",
		"endtime":  "2024-06-01T10:00:00",
		"purpose":  purpose,
		"username": "alice",
	})
	if id > f.nextID {
		f.nextID = id
	}
}

func newTestPlanner(t *testing.T, svc *fakeService) *Planner {
	t.Helper()
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)
	store, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	store.Set(session.Credential{Token: "tok", Kind: "bearer"})
	return NewPlanner(api.NewClient(srv.URL, store, time.Second))
}

func validDraft() api.Draft {
	return api.Draft{
		Start:   time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		Purpose: "dentist",
	}
}

func TestCreateAppendsExactlyOne(t *testing.T) {
	svc := &fakeService{}
	svc.seed(1, "existing")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := planner.Appointments()

	planner.StartCreate()
	planner.SetDraft(validDraft())
	created, err := planner.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for _, appt := range before {
		if appt.ID == created.ID {
			t.Fatalf("created id %d was already cached", created.ID)
		}
	}
	after := planner.Appointments()
	if len(after) != len(before)+1 {
		t.Fatalf("cache length = %d, want %d", len(after), len(before)+1)
	}
	if after[len(after)-1].ID != created.ID {
		t.Fatalf("created appointment not appended to cache")
	}
	if got := planner.Editor().Mode; got != ModeIdle {
		t.Fatalf("editor mode after successful create = %s, want idle", got)
	}
}

func TestUpdateReplacesOnlyMatchingEntry(t *testing.T) {
	svc := &fakeService{}
	svc.seed(1, "keep me")
	svc.seed(2, "change me")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	untouched := planner.Appointments()[0]

	if err := planner.StartEdit(2); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	draft := planner.Draft()
	draft.Purpose = "changed"
	planner.SetDraft(draft)
	updated, err := planner.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	after := planner.Appointments()
	if !reflect.DeepEqual(after[0], untouched) {
		t.Fatalf("entry 1 changed: %+v != %+v", after[0], untouched)
	}
	if !reflect.DeepEqual(after[1], updated) {
		t.Fatalf("entry 2 = %+v, want service result %+v", after[1], updated)
	}
	if after[1].Purpose != "changed" {
		t.Fatalf("purpose = %q, want changed", after[1].Purpose)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	svc := &fakeService{}
	svc.seed(1, "one")
	svc.seed(2, "two")
	planner := newTestPlanner(t, svc)

	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first := planner.Appointments()
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second := planner.Appointments()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("back-to-back refreshes differ: %+v vs %+v", first, second)
	}
}

func TestRefreshDropsStaleEntries(t *testing.T) {
	svc := &fakeService{}
	svc.seed(1, "one")
	svc.seed(2, "two")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	svc.appointments = svc.appointments[:1]
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := len(planner.Appointments()); got != 1 {
		t.Fatalf("cache length after shrink = %d, want 1", got)
	}
}

func TestInvertedIntervalRejectedBeforeDispatch(t *testing.T) {
	svc := &fakeService{}
	planner := newTestPlanner(t, svc)

	planner.StartCreate()
	draft := api.Draft{
		Start:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Purpose: "x",
	}
	planner.SetDraft(draft)
	_, err := planner.Submit(context.Background())
	if api.KindOf(err) != api.KindValidation {
		t.Fatalf("expected local validation error, got %v", err)
	}
	if svc.requests != 0 {
		t.Fatalf("expected no network call, saw %d requests", svc.requests)
	}
	if planner.Draft() != draft {
		t.Fatalf("draft must be preserved unchanged, got %+v", planner.Draft())
	}
	if planner.Editor().Mode != ModeCreating {
		t.Fatalf("editor must stay in creating, got %s", planner.Editor().Mode)
	}
}

func TestEqualInstantsRejected(t *testing.T) {
	svc := &fakeService{}
	planner := newTestPlanner(t, svc)
	planner.StartCreate()
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	planner.SetDraft(api.Draft{Start: at, End: at, Purpose: "x"})
	if _, err := planner.Submit(context.Background()); api.KindOf(err) != api.KindValidation {
		t.Fatalf("start == end must fail locally, got %v", err)
	}
	if svc.requests != 0 {
		t.Fatalf("expected no network call, saw %d", svc.requests)
	}
}

func TestEmptyPurposeRejected(t *testing.T) {
	svc := &fakeService{}
	planner := newTestPlanner(t, svc)
	planner.StartCreate()
	draft := validDraft()
	draft.Purpose = ""
	planner.SetDraft(draft)
	_, err := planner.Submit(context.Background())
	if api.KindOf(err) != api.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "purpose") {
		t.Fatalf("message should name the field, got %q", err)
	}
}

func TestUpdateNotFoundLeavesEverything(t *testing.T) {
	svc := &fakeService{failUpdate: http.StatusNotFound}
	svc.seed(42, "slot")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	cacheBefore := planner.Appointments()

	if err := planner.StartEdit(42); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	draftBefore := planner.Draft()
	_, err := planner.Submit(context.Background())
	if api.KindOf(err) != api.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if !reflect.DeepEqual(planner.Appointments(), cacheBefore) {
		t.Fatalf("cache changed on failed update")
	}
	if planner.Draft() != draftBefore {
		t.Fatalf("draft changed on failed update")
	}
	if got := planner.Editor(); got.Mode != ModeEditing || got.ID != 42 {
		t.Fatalf("editor = %+v, want editing 42", got)
	}
}

func TestStartEditPopulatesDraftAndCancelDiscards(t *testing.T) {
	svc := &fakeService{}
	svc.seed(5, "review")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := planner.StartEdit(5); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	draft := planner.Draft()
	if draft.Purpose != "review" {
		t.Fatalf("draft purpose = %q, want review", draft.Purpose)
	}
	if !draft.Start.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("draft start = %v", draft.Start)
	}

	planner.Cancel()
	if planner.Editor().Mode != ModeIdle {
		t.Fatalf("cancel must return to idle")
	}
	if planner.Draft() != (api.Draft{}) {
		t.Fatalf("cancel must discard the draft")
	}
}

func TestStartEditUnknownIDIsCallerError(t *testing.T) {
	svc := &fakeService{}
	planner := newTestPlanner(t, svc)
	if err := planner.StartEdit(99); err == nil {
		t.Fatalf("expected error editing an id that is not cached")
	}
}

func TestSubmitWhileIdleIsCallerError(t *testing.T) {
	svc := &fakeService{}
	planner := newTestPlanner(t, svc)
	if _, err := planner.Submit(context.Background()); err == nil {
		t.Fatalf("expected error submitting with no draft open")
	}
	if svc.requests != 0 {
		t.Fatalf("expected no network call, saw %d", svc.requests)
	}
}

func TestInvalidateEmptiesCache(t *testing.T) {
	svc := &fakeService{}
	svc.seed(1, "one")
	planner := newTestPlanner(t, svc)
	if err := planner.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	planner.StartCreate()
	planner.Invalidate()
	if len(planner.Appointments()) != 0 {
		t.Fatalf("invalidate must drop the cache")
	}
	if planner.Editor().Mode != ModeIdle {
		t.Fatalf("invalidate must close the editor")
	}
}

func TestReadsDuringInFlightSubmit(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			close(entered)
			<-gate
			json.NewEncoder(w).Encode(map[string]any{
				"id":       7,
				"startime": "2024-07-01T09:00:00",
				"endtime":  "2024-07-01T10:00:00",
				"purpose":  "dentist",
				"username": "alice",
			})
			return
		}
		w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	store.Set(session.Credential{Token: "tok", Kind: "bearer"})
	planner := NewPlanner(api.NewClient(srv.URL, store, 5*time.Second))

	planner.StartCreate()
	planner.SetDraft(validDraft())

	done := make(chan error, 1)
	go func() {
		_, err := planner.Submit(context.Background())
		done <- err
	}()
	<-entered
	// The event loop keeps rendering while a round trip is in flight.
	for i := 0; i < 100; i++ {
		planner.Editor()
		planner.Appointments()
		planner.Draft()
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if planner.Editor().Mode != ModeIdle {
		t.Fatalf("editor must close after a successful submit")
	}
	if got := len(planner.Appointments()); got != 1 {
		t.Fatalf("cache length = %d, want 1", got)
	}
}
