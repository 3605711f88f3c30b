package workout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// Start creates a new session for the given split day. A user may only have
// one active session; starting a second one fails with ErrConflict.
func (s *Service) Start(ctx context.Context, userID int, splitID, dayID uuid.UUID) (*models.WorkoutSession, error) {
	active, err := s.sessions.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding active session: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: a workout session is already active", ErrConflict)
	}

	plan, err := s.plans.FindDayPlan(ctx, splitID, dayID)
	if err != nil {
		return nil, fmt.Errorf("finding day plan: %w", err)
	}
	if len(plan.Exercises) == 0 {
		return nil, fmt.Errorf("%w: split day has no exercises", ErrInvalidInput)
	}

	now := s.now()
	session := &models.WorkoutSession{
		ID:            uuid.New(),
		UserID:        userID,
		SplitID:       splitID,
		DayID:         dayID,
		Phase:         models.PhaseExercise,
		StartedAt:     now,
		LastUpdatedAt: now,
		CreatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.log.Info("workout session started", "session_id", session.ID, "user_id", userID, "day_id", dayID)
	return session, nil
}

// GetActive returns the user's session with its plan, or nil when none is active.
func (s *Service) GetActive(ctx context.Context, userID int) (*models.SessionDetail, error) {
	detail, err := s.sessions.FindActiveByUserIDWithDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding active session: %w", err)
	}
	return detail, nil
}

// Update applies a partial update to a session owned by userID. A pausedAt
// value is clamped into [startedAt, now] the same way Sync does.
func (s *Service) Update(ctx context.Context, sessionID uuid.UUID, userID int, patch models.SessionPatch) (*models.WorkoutSession, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if t := patch.PausedAt.Time; t != nil {
		patch.PausedAt = models.SetTime(clampPause(*t, session.StartedAt, s.now()))
	}

	updated, err := s.sessions.Update(ctx, sessionID, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotOwned
		}
		return nil, fmt.Errorf("updating session: %w", err)
	}
	return updated, nil
}

// Pause freezes both timers at the current instant.
func (s *Service) Pause(ctx context.Context, sessionID uuid.UUID, userID int) (*models.WorkoutSession, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Paused() {
		return nil, fmt.Errorf("%w: session is already paused", ErrConflict)
	}
	return s.Update(ctx, sessionID, userID, models.SessionPatch{PausedAt: models.SetTime(s.now())})
}

// Resume clears the pause. Timer values stay where the last sync left them;
// the client resumes counting from there.
func (s *Service) Resume(ctx context.Context, sessionID uuid.UUID, userID int) (*models.WorkoutSession, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.Paused() {
		return nil, fmt.Errorf("%w: session is not paused", ErrConflict)
	}
	return s.Update(ctx, sessionID, userID, models.SessionPatch{PausedAt: models.Null()})
}

// RecordSet appends a completed set to the session. Each (exercise, set)
// position can be recorded once.
func (s *Service) RecordSet(ctx context.Context, sessionID uuid.UUID, userID int, in models.SetInput) (*models.CompletedSet, error) {
	if err := s.requireOwner(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	detail, err := s.sessions.FindByIDWithDetails(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotOwned
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	verr := &ValidationError{}
	if _, ok := detail.ExerciseAt(in.ExerciseIndex); !ok {
		verr.add("exerciseIndex", fmt.Sprintf("must be between 0 and %d", len(detail.Exercises)-1))
	}
	if in.SetIndex < 0 {
		verr.add("setIndex", "must be a non-negative integer")
	}
	if in.Weight < 0 || math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) {
		verr.add("weight", "must be a non-negative number")
	}
	if in.Reps < 0 {
		verr.add("reps", "must be a non-negative integer")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if detail.HasSet(in.ExerciseIndex, in.SetIndex) {
		return nil, fmt.Errorf("%w: set %d of exercise %d is already recorded", ErrConflict, in.SetIndex, in.ExerciseIndex)
	}

	set := models.CompletedSet{
		ExerciseIndex: in.ExerciseIndex,
		SetIndex:      in.SetIndex,
		Weight:        in.Weight,
		Reps:          in.Reps,
		Notes:         in.Notes,
		CompletedAt:   s.now(),
	}
	if err := s.sessions.AppendSet(ctx, sessionID, set); err != nil {
		return nil, fmt.Errorf("recording set: %w", err)
	}
	return &set, nil
}

// Abandon deletes the session without writing a log.
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID, userID int) error {
	if err := s.requireOwner(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSessionNotOwned
		}
		return fmt.Errorf("deleting session: %w", err)
	}
	s.log.Info("workout session abandoned", "session_id", sessionID, "user_id", userID)
	return nil
}

func (s *Service) requireOwner(ctx context.Context, sessionID uuid.UUID, userID int) error {
	owned, err := s.sessions.IsOwnedByUser(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("checking session owner: %w", err)
	}
	if !owned {
		return ErrSessionNotOwned
	}
	return nil
}

func (s *Service) ownedSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.WorkoutSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotOwned
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}
	return session, nil
}
