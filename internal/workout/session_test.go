package workout_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// TestStartInitialState verifies a new session begins in the exercise phase
// at position (0,0) with zeroed timers.
func TestStartInitialState(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	if sess.Phase != models.PhaseExercise {
		t.Errorf("phase = %q, want %q", sess.Phase, models.PhaseExercise)
	}
	if sess.CurrentExerciseIndex != 0 || sess.CurrentSetIndex != 0 {
		t.Errorf("position = (%d,%d), want (0,0)", sess.CurrentExerciseIndex, sess.CurrentSetIndex)
	}
	if sess.ExerciseElapsedSeconds != 0 {
		t.Errorf("elapsed = %d, want 0", sess.ExerciseElapsedSeconds)
	}
	if sess.RestRemainingSeconds != nil {
		t.Errorf("rest = %d, want nil", *sess.RestRemainingSeconds)
	}
	if sess.PausedAt != nil {
		t.Errorf("paused_at = %v, want nil", sess.PausedAt)
	}
	if !sess.StartedAt.Equal(t0) {
		t.Errorf("started_at = %v, want %v", sess.StartedAt, t0)
	}
}

// TestStartRejectsSecondSession verifies a user cannot hold two sessions.
func TestStartRejectsSecondSession(t *testing.T) {
	svc, store, _ := newService(t)
	_, plan := startSession(t, svc, store, 1)

	_, err := svc.Start(t.Context(), 1, plan.Split.ID, plan.Day.ID)
	if !errors.Is(err, workout.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if n := store.SessionCount(); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}

	// Another user is unaffected.
	if _, err := svc.Start(t.Context(), 2, plan.Split.ID, plan.Day.ID); err != nil {
		t.Errorf("Start for user 2: %v", err)
	}
}

// TestStartUnknownDay verifies starting a day outside the split fails.
func TestStartUnknownDay(t *testing.T) {
	svc, store, _ := newService(t)
	plan := store.AddPlan("Legs", "Squat")

	_, err := svc.Start(t.Context(), 1, plan.Split.ID, uuid.New())
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestStartEmptyDay verifies a day without exercises cannot be started.
func TestStartEmptyDay(t *testing.T) {
	svc, store, _ := newService(t)
	plan := store.AddPlan("Rest day")

	_, err := svc.Start(t.Context(), 1, plan.Split.ID, plan.Day.ID)
	if !errors.Is(err, workout.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestGetActive verifies the active session comes back with its plan, and
// nil once there is none.
func TestGetActive(t *testing.T) {
	svc, store, _ := newService(t)

	got, err := svc.GetActive(t.Context(), 1)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got != nil {
		t.Fatalf("GetActive = %+v, want nil", got)
	}

	sess, plan := startSession(t, svc, store, 1)
	got, err = svc.GetActive(t.Context(), 1)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("GetActive = %+v, want session %s", got, sess.ID)
	}
	if got.Day.Name != "Push" {
		t.Errorf("day = %q, want %q", got.Day.Name, "Push")
	}
	if diff := cmp.Diff(plan.Exercises, got.Exercises); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
}

// TestUpdateOnlyTouchesPresentFields verifies a partial update leaves every
// absent field unchanged.
func TestUpdateOnlyTouchesPresentFields(t *testing.T) {
	svc, store, clock := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	rest := models.PhaseRest
	clock.Advance(time.Minute)
	first, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{
		Phase:                  &rest,
		RestRemainingSeconds:   models.SetInt(90),
		ExerciseElapsedSeconds: intPtr(42),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	clock.Advance(time.Minute)
	second, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{CurrentSetIndex: intPtr(1)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := *first
	want.CurrentSetIndex = 1
	want.LastUpdatedAt = clock.Now()
	if diff := cmp.Diff(want, *second); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

// TestUpdateClampsPausedAt verifies a client pause timestamp outside the
// session's lifetime is pulled back to startedAt or now.
func TestUpdateClampsPausedAt(t *testing.T) {
	svc, store, clock := newService(t)
	sess, _ := startSession(t, svc, store, 1)
	clock.Advance(10 * time.Minute)

	early, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{PausedAt: models.SetTime(t0.Add(-48 * time.Hour))})
	if err != nil {
		t.Fatalf("Update early: %v", err)
	}
	if early.PausedAt == nil || !early.PausedAt.Equal(sess.StartedAt) {
		t.Errorf("early paused_at = %v, want %v", early.PausedAt, sess.StartedAt)
	}

	late, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{PausedAt: models.SetTime(t0.Add(72 * time.Hour))})
	if err != nil {
		t.Fatalf("Update late: %v", err)
	}
	if late.PausedAt == nil || !late.PausedAt.Equal(clock.Now()) {
		t.Errorf("late paused_at = %v, want %v", late.PausedAt, clock.Now())
	}
	if late.PausedAt.After(late.LastUpdatedAt) {
		t.Errorf("paused_at %v after last_updated_at %v", late.PausedAt, late.LastUpdatedAt)
	}

	inside := t0.Add(5 * time.Minute)
	mid, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{PausedAt: models.SetTime(inside)})
	if err != nil {
		t.Fatalf("Update inside: %v", err)
	}
	if mid.PausedAt == nil || !mid.PausedAt.Equal(inside) {
		t.Errorf("paused_at = %v, want %v unchanged", mid.PausedAt, inside)
	}
}

// TestUpdateClearsRestTimer verifies a null rest timer clears the countdown.
func TestUpdateClearsRestTimer(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	if _, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{RestRemainingSeconds: models.SetInt(45)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{RestRemainingSeconds: models.NullInt()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.RestRemainingSeconds != nil {
		t.Errorf("rest = %d, want nil", *got.RestRemainingSeconds)
	}
}

// TestUpdateIdempotent verifies applying the same patch twice yields the
// same field values.
func TestUpdateIdempotent(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	patch := models.SessionPatch{CurrentExerciseIndex: intPtr(1), ExerciseElapsedSeconds: intPtr(30)}
	a, err := svc.Update(t.Context(), sess.ID, 1, patch)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	b, err := svc.Update(t.Context(), sess.ID, 1, patch)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second update changed session (-first +second):\n%s", diff)
	}
}

// TestUpdateValidation verifies negative values and unknown phases are rejected.
func TestUpdateValidation(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	bad := models.Phase("warmup")
	_, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{
		Phase:                  &bad,
		ExerciseElapsedSeconds: intPtr(-1),
	})
	var verr *workout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["phase"]; !ok {
		t.Errorf("missing phase error in %v", verr.Fields)
	}
	if _, ok := verr.Fields["exerciseElapsedSeconds"]; !ok {
		t.Errorf("missing exerciseElapsedSeconds error in %v", verr.Fields)
	}
}

func TestUpdateTimerBounds(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	got, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{
		ExerciseElapsedSeconds: intPtr(90000),
		RestRemainingSeconds:   models.SetInt(86401),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ExerciseElapsedSeconds != 90000 {
		t.Errorf("elapsed = %d, want 90000", got.ExerciseElapsedSeconds)
	}
	if got.RestRemainingSeconds == nil || *got.RestRemainingSeconds != 86401 {
		t.Errorf("rest = %v, want 86401", got.RestRemainingSeconds)
	}

	_, err = svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{
		RestRemainingSeconds: models.SetInt(math.MaxInt32 + 1),
	})
	var verr *workout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["restRemainingSeconds"]; !ok {
		t.Errorf("missing restRemainingSeconds error in %v", verr.Fields)
	}
}

// TestUpdateNotOwned verifies another user's session is reported as not found.
func TestUpdateNotOwned(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	_, err := svc.Update(t.Context(), sess.ID, 2, models.SessionPatch{CurrentSetIndex: intPtr(1)})
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestAbandonNotOwnedMessage verifies the literal message is identical for
// a foreign session and a missing one.
func TestAbandonNotOwnedMessage(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	const want = "Session not found or not owned by user"
	for name, id := range map[string]uuid.UUID{"foreign": sess.ID, "missing": uuid.New()} {
		err := svc.Abandon(t.Context(), id, 2)
		if err == nil {
			t.Fatalf("%s: Abandon succeeded, want error", name)
		}
		if err.Error() != want {
			t.Errorf("%s: error = %q, want %q", name, err.Error(), want)
		}
	}
	if n := store.SessionCount(); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

// TestAbandonWritesNoLog verifies abandoning deletes the session only.
func TestAbandonWritesNoLog(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	if _, err := svc.RecordSet(t.Context(), sess.ID, 1, models.SetInput{Weight: 60, Reps: 10}); err != nil {
		t.Fatalf("RecordSet: %v", err)
	}
	if err := svc.Abandon(t.Context(), sess.ID, 1); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if n := store.SessionCount(); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
	if n := store.LogCount(); n != 0 {
		t.Errorf("logs = %d, want 0", n)
	}
	if n := store.RecordCount(); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

// TestPauseResume verifies the pause flag toggles and timers stay frozen.
func TestPauseResume(t *testing.T) {
	svc, store, clock := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	if _, err := svc.Update(t.Context(), sess.ID, 1, models.SessionPatch{ExerciseElapsedSeconds: intPtr(75)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	clock.Advance(2 * time.Minute)
	paused, err := svc.Pause(t.Context(), sess.ID, 1)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.PausedAt == nil || !paused.PausedAt.Equal(clock.Now()) {
		t.Fatalf("paused_at = %v, want %v", paused.PausedAt, clock.Now())
	}
	if paused.PausedAt.Before(paused.StartedAt) {
		t.Errorf("paused_at %v before started_at %v", paused.PausedAt, paused.StartedAt)
	}

	if _, err := svc.Pause(t.Context(), sess.ID, 1); !errors.Is(err, workout.ErrConflict) {
		t.Errorf("second Pause err = %v, want ErrConflict", err)
	}

	clock.Advance(5 * time.Minute)
	resumed, err := svc.Resume(t.Context(), sess.ID, 1)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.PausedAt != nil {
		t.Errorf("paused_at = %v, want nil", resumed.PausedAt)
	}
	if resumed.ExerciseElapsedSeconds != 75 {
		t.Errorf("elapsed = %d, want 75", resumed.ExerciseElapsedSeconds)
	}

	if _, err := svc.Resume(t.Context(), sess.ID, 1); !errors.Is(err, workout.ErrConflict) {
		t.Errorf("second Resume err = %v, want ErrConflict", err)
	}
}

// TestRecordSet verifies sets are appended once per position and checked
// against the plan.
func TestRecordSet(t *testing.T) {
	svc, store, _ := newService(t)
	sess, _ := startSession(t, svc, store, 1)

	set, err := svc.RecordSet(t.Context(), sess.ID, 1, models.SetInput{ExerciseIndex: 1, SetIndex: 0, Weight: 40, Reps: 8, Notes: "easy"})
	if err != nil {
		t.Fatalf("RecordSet: %v", err)
	}
	if !set.CompletedAt.Equal(t0) {
		t.Errorf("completed_at = %v, want %v", set.CompletedAt, t0)
	}

	_, err = svc.RecordSet(t.Context(), sess.ID, 1, models.SetInput{ExerciseIndex: 1, SetIndex: 0, Weight: 45, Reps: 6})
	if !errors.Is(err, workout.ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}

	_, err = svc.RecordSet(t.Context(), sess.ID, 1, models.SetInput{ExerciseIndex: 5, SetIndex: 0, Weight: 45, Reps: 6})
	if !errors.Is(err, workout.ErrInvalidInput) {
		t.Errorf("out of plan err = %v, want ErrInvalidInput", err)
	}

	_, err = svc.RecordSet(t.Context(), sess.ID, 1, models.SetInput{ExerciseIndex: 0, SetIndex: 0, Weight: -5, Reps: -1})
	var verr *workout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("fields = %v, want weight and reps", verr.Fields)
	}

	got, _ := store.Session(sess.ID)
	if len(got.CompletedSets) != 1 {
		t.Fatalf("completed sets = %d, want 1", len(got.CompletedSets))
	}
	if got.CompletedSets[0].Notes != "easy" {
		t.Errorf("notes = %q, want %q", got.CompletedSets[0].Notes, "easy")
	}
}
