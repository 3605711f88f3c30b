package workout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

// TestLogOwnership verifies log reads and writes are scoped to the owner.
func TestLogOwnership(t *testing.T) {
	svc, store, _ := newService(t)
	log := store.AddLog(models.WorkoutLog{UserID: 1, CompletedAt: t0, Notes: "old"})

	if _, err := svc.Log(t.Context(), log.ID, 2); !errors.Is(err, workout.ErrLogNotOwned) {
		t.Errorf("Log err = %v, want ErrLogNotOwned", err)
	}
	if _, err := svc.UpdateLogNotes(t.Context(), log.ID, 2, "mine now"); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("UpdateLogNotes err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteLog(t.Context(), log.ID, 2); !errors.Is(err, workout.ErrForbidden) {
		t.Errorf("DeleteLog err = %v, want ErrForbidden", err)
	}

	updated, err := svc.UpdateLogNotes(t.Context(), log.ID, 1, "new")
	if err != nil {
		t.Fatalf("UpdateLogNotes: %v", err)
	}
	if updated.Notes != "new" {
		t.Errorf("notes = %q, want %q", updated.Notes, "new")
	}
	if err := svc.DeleteLog(t.Context(), log.ID, 1); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if store.LogCount() != 0 {
		t.Errorf("logs = %d, want 0", store.LogCount())
	}
}

// TestStats verifies aggregates and the streak over completed workouts.
func TestStats(t *testing.T) {
	svc, store, _ := newService(t)
	store.AddLog(models.WorkoutLog{UserID: 1, DurationMinutes: 40, CompletedAt: t0.Add(-time.Hour)})
	store.AddLog(models.WorkoutLog{UserID: 1, DurationMinutes: 60, CompletedAt: t0.Add(-25 * time.Hour)})
	store.AddLog(models.WorkoutLog{UserID: 2, DurationMinutes: 90, CompletedAt: t0})

	stats, err := svc.Stats(t.Context(), 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalWorkouts != 2 || stats.TotalDuration != 100 || stats.AverageDuration != 50 {
		t.Errorf("stats = %+v, want 2 workouts, 100 min, 50 avg", stats)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", stats.CurrentStreak)
	}
	if stats.LastWorkoutDate == nil || !stats.LastWorkoutDate.Equal(t0.Add(-time.Hour)) {
		t.Errorf("last workout = %v, want %v", stats.LastWorkoutDate, t0.Add(-time.Hour))
	}
}

// TestExerciseHistoryAndSplitCompletion runs a full session and reads it back.
func TestExerciseHistoryAndSplitCompletion(t *testing.T) {
	svc, store, clock := newService(t)
	sess, plan := startSession(t, svc, store, 1)

	done, err := svc.HasCompletedSplit(t.Context(), 1, plan.Split.ID)
	if err != nil || done {
		t.Fatalf("HasCompletedSplit = %v, %v; want false", done, err)
	}

	recordSets(t, svc, clock, sess.ID, 1,
		models.SetInput{ExerciseIndex: 0, SetIndex: 0, Weight: 60, Reps: 10},
		models.SetInput{ExerciseIndex: 0, SetIndex: 1, Weight: 65, Reps: 8},
		models.SetInput{ExerciseIndex: 1, SetIndex: 0, Weight: 30, Reps: 12},
	)
	if _, err := svc.Complete(t.Context(), sess.ID, 1, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	history, err := svc.ExerciseHistory(t.Context(), 1, plan.Exercises[0].ExerciseID, 0)
	if err != nil {
		t.Fatalf("ExerciseHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[0].SetIndex != 0 || history[1].Weight != 65 {
		t.Errorf("history = %+v", history)
	}

	done, err = svc.HasCompletedSplit(t.Context(), 1, plan.Split.ID)
	if err != nil || !done {
		t.Errorf("HasCompletedSplit = %v, %v; want true", done, err)
	}

	logs, err := svc.Logs(t.Context(), 1, 0)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	full, err := svc.Log(t.Context(), logs[0].ID, 1)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(full.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(full.Exercises))
	}
}

// TestLogsBetween verifies range queries are half-open and validated.
func TestLogsBetween(t *testing.T) {
	svc, store, _ := newService(t)
	store.AddLog(models.WorkoutLog{UserID: 1, CompletedAt: t0})
	store.AddLog(models.WorkoutLog{UserID: 1, CompletedAt: t0.Add(24 * time.Hour)})

	logs, err := svc.LogsBetween(t.Context(), 1, t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LogsBetween: %v", err)
	}
	if len(logs) != 1 || !logs[0].CompletedAt.Equal(t0) {
		t.Errorf("logs = %+v, want only the first", logs)
	}

	if _, err := svc.LogsBetween(t.Context(), 1, t0, t0); !errors.Is(err, workout.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestDeleteRecord verifies record deletion is owner-only.
func TestDeleteRecord(t *testing.T) {
	svc, store, _ := newService(t)
	id := uuid.New()
	store.AddRecord(models.PersonalRecord{ID: id, UserID: 1, ExerciseID: uuid.New(), OneRepMax: 100})

	err := svc.DeleteRecord(t.Context(), id, 2)
	if !errors.Is(err, workout.ErrRecordNotOwned) {
		t.Errorf("err = %v, want ErrRecordNotOwned", err)
	}
	if err.Error() != "Personal record not found or not owned by user" {
		t.Errorf("message = %q", err.Error())
	}
	if err := svc.DeleteRecord(t.Context(), id, 1); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	records, _ := svc.PersonalRecords(t.Context(), 1)
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}
