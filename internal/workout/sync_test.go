package workout_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

// TestParseSnapshot covers the accepted and rejected shapes of a sync body.
func TestParseSnapshot(t *testing.T) {
	id := uuid.MustParse("6f1c1a52-3c1e-4b43-9d0c-1f1d7f3a9a10")

	tests := []struct {
		name      string
		body      string
		badFields []string
		check     func(t *testing.T, s models.SyncSnapshot)
	}{
		{
			name: "only session id",
			body: fmt.Sprintf(`{"sessionId":%q}`, id),
			check: func(t *testing.T, s models.SyncSnapshot) {
				if s.SessionID != id {
					t.Errorf("session id = %s, want %s", s.SessionID, id)
				}
				if s.ExerciseElapsedSeconds != nil || s.RestRemainingSeconds != nil || s.PausedAt.Set {
					t.Errorf("absent fields were set: %+v", s)
				}
			},
		},
		{
			name: "all fields",
			body: fmt.Sprintf(`{"sessionId":%q,"exerciseElapsedSeconds":120,"restRemainingSeconds":0,"pausedAt":"2026-03-02T10:05:00+01:00"}`, id),
			check: func(t *testing.T, s models.SyncSnapshot) {
				if s.ExerciseElapsedSeconds == nil || *s.ExerciseElapsedSeconds != 120 {
					t.Errorf("elapsed = %v, want 120", s.ExerciseElapsedSeconds)
				}
				if s.RestRemainingSeconds == nil || *s.RestRemainingSeconds != 0 {
					t.Errorf("rest = %v, want 0", s.RestRemainingSeconds)
				}
				want := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)
				if s.PausedAt.Time == nil || !s.PausedAt.Time.Equal(want) {
					t.Errorf("paused_at = %v, want %v", s.PausedAt.Time, want)
				}
				if s.PausedAt.Time.Location() != time.UTC {
					t.Errorf("paused_at location = %v, want UTC", s.PausedAt.Time.Location())
				}
			},
		},
		{
			name: "timer longer than a day",
			body: fmt.Sprintf(`{"sessionId":%q,"exerciseElapsedSeconds":90000,"restRemainingSeconds":86401}`, id),
			check: func(t *testing.T, s models.SyncSnapshot) {
				if s.ExerciseElapsedSeconds == nil || *s.ExerciseElapsedSeconds != 90000 {
					t.Errorf("elapsed = %v, want 90000", s.ExerciseElapsedSeconds)
				}
				if s.RestRemainingSeconds == nil || *s.RestRemainingSeconds != 86401 {
					t.Errorf("rest = %v, want 86401", s.RestRemainingSeconds)
				}
			},
		},
		{
			name: "null pausedAt clears",
			body: fmt.Sprintf(`{"sessionId":%q,"pausedAt":null}`, id),
			check: func(t *testing.T, s models.SyncSnapshot) {
				if !s.PausedAt.Set || s.PausedAt.Time != nil {
					t.Errorf("paused_at = %+v, want explicit null", s.PausedAt)
				}
			},
		},
		{name: "missing session id", body: `{"exerciseElapsedSeconds":3}`, badFields: []string{"sessionId"}},
		{name: "malformed session id", body: `{"sessionId":"abc"}`, badFields: []string{"sessionId"}},
		{name: "numeric session id", body: `{"sessionId":42}`, badFields: []string{"sessionId"}},
		{name: "negative timer", body: fmt.Sprintf(`{"sessionId":%q,"exerciseElapsedSeconds":-1}`, id), badFields: []string{"exerciseElapsedSeconds"}},
		{name: "fractional timer", body: fmt.Sprintf(`{"sessionId":%q,"restRemainingSeconds":1.5}`, id), badFields: []string{"restRemainingSeconds"}},
		{name: "string timer", body: fmt.Sprintf(`{"sessionId":%q,"restRemainingSeconds":"10"}`, id), badFields: []string{"restRemainingSeconds"}},
		{name: "null timer", body: fmt.Sprintf(`{"sessionId":%q,"exerciseElapsedSeconds":null}`, id), badFields: []string{"exerciseElapsedSeconds"}},
		{name: "timer beyond column width", body: fmt.Sprintf(`{"sessionId":%q,"exerciseElapsedSeconds":2147483648}`, id), badFields: []string{"exerciseElapsedSeconds"}},
		{name: "bad timestamp", body: fmt.Sprintf(`{"sessionId":%q,"pausedAt":"yesterday"}`, id), badFields: []string{"pausedAt"}},
		{name: "numeric timestamp", body: fmt.Sprintf(`{"sessionId":%q,"pausedAt":1700000000}`, id), badFields: []string{"pausedAt"}},
		{name: "not an object", body: `[1,2]`, badFields: []string{"body"}},
		{name: "several problems", body: `{"exerciseElapsedSeconds":-3,"pausedAt":false}`, badFields: []string{"sessionId", "exerciseElapsedSeconds", "pausedAt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := workout.ParseSnapshot([]byte(tt.body))
			if len(tt.badFields) == 0 {
				if err != nil {
					t.Fatalf("ParseSnapshot: %v", err)
				}
				tt.check(t, snap)
				return
			}

			var verr *workout.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !errors.Is(err, workout.ErrInvalidInput) {
				t.Errorf("errors.Is(err, ErrInvalidInput) = false")
			}
			if len(verr.Fields) != len(tt.badFields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.badFields)
			}
			for _, f := range tt.badFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing error for %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

// TestSyncNullPausedAtKeepsTimers verifies clearing a pause through sync
// leaves the stored timers untouched.
func TestSyncNullPausedAtKeepsTimers(t *testing.T) {
	svc, store, clock := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	rest := models.PhaseRest
	if _, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{
		Phase:                  &rest,
		ExerciseElapsedSeconds: intPtr(95),
		RestRemainingSeconds:   models.SetInt(40),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := svc.Pause(t.Context(), sess.ID, 1); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	clock.Advance(time.Minute)
	got, err := svc.Sync(t.Context(), 1, models.SyncSnapshot{SessionID: sess.ID, PausedAt: models.Null()})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got.PausedAt != nil {
		t.Errorf("paused_at = %v, want nil", got.PausedAt)
	}
	if got.ExerciseElapsedSeconds != 95 {
		t.Errorf("elapsed = %d, want 95", got.ExerciseElapsedSeconds)
	}
	if got.RestRemainingSeconds == nil || *got.RestRemainingSeconds != 40 {
		t.Errorf("rest = %v, want 40", got.RestRemainingSeconds)
	}
	if got.Phase != models.PhaseRest {
		t.Errorf("phase = %q, want %q", got.Phase, models.PhaseRest)
	}
}

// TestSyncAbsoluteTimers verifies replaying a snapshot does not add time.
func TestSyncAbsoluteTimers(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	snap := models.SyncSnapshot{SessionID: sess.ID, ExerciseElapsedSeconds: intPtr(30)}
	for range 3 {
		got, err := svc.Sync(t.Context(), 1, snap)
		if err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if got.ExerciseElapsedSeconds != 30 {
			t.Fatalf("elapsed = %d, want 30", got.ExerciseElapsedSeconds)
		}
	}
}

// TestSyncClampsPausedAt verifies a skewed client pause time is kept between
// the session start and the server clock.
func TestSyncClampsPausedAt(t *testing.T) {
	svc, store, clock := newService(t)
	sess, _ := startSession(t, svc, store, 1)
	clock.Advance(10 * time.Minute)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"before start", t0.Add(-time.Hour), t0},
		{"in the future", clock.Now().Add(time.Hour), clock.Now()},
		{"inside window", t0.Add(3 * time.Minute), t0.Add(3 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Sync(t.Context(), 1, models.SyncSnapshot{SessionID: sess.ID, PausedAt: models.SetTime(tt.in)})
			if err != nil {
				t.Fatalf("Sync: %v", err)
			}
			if got.PausedAt == nil || !got.PausedAt.Equal(tt.want) {
				t.Errorf("paused_at = %v, want %v", got.PausedAt, tt.want)
			}
		})
	}
}

// TestSyncNotOwned verifies a foreign session is indistinguishable from a
// missing one.
func TestSyncNotOwned(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	_, err := svc.Sync(t.Context(), 2, models.SyncSnapshot{SessionID: sess.ID, ExerciseElapsedSeconds: intPtr(5)})
	if !errors.Is(err, workout.ErrSessionNotOwned) {
		t.Errorf("err = %v, want ErrSessionNotOwned", err)
	}
	got, _ := store.Session(sess.ID)
	if got.ExerciseElapsedSeconds != 0 {
		t.Errorf("elapsed = %d, want 0", got.ExerciseElapsedSeconds)
	}
}
