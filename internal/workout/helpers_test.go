package workout_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/claude/splitlog/internal/workout/workouttest"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T) (*workout.Service, *workouttest.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	store := workouttest.New()
	store.Now = clock.Now
	svc := workout.NewService(store.Stores(), slog.New(slog.DiscardHandler), workout.WithClock(clock.Now))
	return svc, store, clock
}

// startSession seeds a two-exercise plan and starts a session on it.
func startSession(t *testing.T, svc *workout.Service, store *workouttest.Store, userID int) (*models.WorkoutSession, models.DayPlan) {
	t.Helper()
	plan := store.AddPlan("Push", "Bench Press", "Overhead Press")
	sess, err := svc.Start(t.Context(), userID, plan.Split.ID, plan.Day.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return sess, plan
}

func intPtr(v int) *int { return &v }
