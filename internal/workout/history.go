package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

const (
	defaultLogLimit     = 20
	maxLogLimit         = 200
	defaultHistoryLimit = 50
)

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}

// Logs returns the user's most recent workout logs, newest first.
func (s *Service) Logs(ctx context.Context, userID, limit int) ([]models.WorkoutLog, error) {
	logs, err := s.logs.FindByUserID(ctx, userID, clampLimit(limit, defaultLogLimit))
	if err != nil {
		return nil, fmt.Errorf("listing workout logs: %w", err)
	}
	return logs, nil
}

// LogsBetween returns logs completed in [start, end).
func (s *Service) LogsBetween(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error) {
	if !end.After(start) {
		return nil, &ValidationError{Fields: map[string]string{"end": "must be after start"}}
	}
	logs, err := s.logs.FindByUserIDAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing workout logs: %w", err)
	}
	return logs, nil
}

// Log returns a single log with its exercises and sets.
func (s *Service) Log(ctx context.Context, logID uuid.UUID, userID int) (*models.WorkoutLog, error) {
	if err := s.requireLogOwner(ctx, logID, userID); err != nil {
		return nil, err
	}
	log, err := s.logs.FindByIDWithDetails(ctx, logID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrLogNotOwned
		}
		return nil, fmt.Errorf("loading workout log: %w", err)
	}
	return log, nil
}

// UpdateLogNotes replaces the notes of a log. Sets stay immutable.
func (s *Service) UpdateLogNotes(ctx context.Context, logID uuid.UUID, userID int, notes string) (*models.WorkoutLog, error) {
	if err := s.requireLogOwner(ctx, logID, userID); err != nil {
		return nil, err
	}
	if err := s.logs.Update(ctx, logID, notes); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrLogNotOwned
		}
		return nil, fmt.Errorf("updating workout log: %w", err)
	}
	return s.Log(ctx, logID, userID)
}

// DeleteLog removes a log. Personal records that point at it keep their
// values; only the back reference is lost.
func (s *Service) DeleteLog(ctx context.Context, logID uuid.UUID, userID int) error {
	if err := s.requireLogOwner(ctx, logID, userID); err != nil {
		return err
	}
	if err := s.logs.Delete(ctx, logID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrLogNotOwned
		}
		return fmt.Errorf("deleting workout log: %w", err)
	}
	s.log.Info("workout log deleted", "log_id", logID, "user_id", userID)
	return nil
}

// Stats summarizes the user's history as of now.
func (s *Service) Stats(ctx context.Context, userID int) (*models.UserStats, error) {
	stats, err := s.logs.GetUserStats(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return stats, nil
}

// ExerciseHistory returns logged sets of one exercise, newest first.
func (s *Service) ExerciseHistory(ctx context.Context, userID int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error) {
	entries, err := s.logs.FindExerciseHistory(ctx, userID, exerciseID, clampLimit(limit, defaultHistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("loading exercise history: %w", err)
	}
	return entries, nil
}

// HasCompletedSplit reports whether the user finished any workout of the split.
func (s *Service) HasCompletedSplit(ctx context.Context, userID int, splitID uuid.UUID) (bool, error) {
	done, err := s.logs.HasCompletedWorkoutForSplit(ctx, userID, splitID)
	if err != nil {
		return false, fmt.Errorf("checking split completion: %w", err)
	}
	return done, nil
}

// PersonalRecords lists all of the user's records.
func (s *Service) PersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	records, err := s.records.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing personal records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a personal record; the next better set recreates it.
func (s *Service) DeleteRecord(ctx context.Context, recordID uuid.UUID, userID int) error {
	owned, err := s.records.IsOwnedByUser(ctx, recordID, userID)
	if err != nil {
		return fmt.Errorf("checking record owner: %w", err)
	}
	if !owned {
		return ErrRecordNotOwned
	}
	if err := s.records.Delete(ctx, recordID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrRecordNotOwned
		}
		return fmt.Errorf("deleting personal record: %w", err)
	}
	return nil
}

func (s *Service) requireLogOwner(ctx context.Context, logID uuid.UUID, userID int) error {
	owned, err := s.logs.IsOwnedByUser(ctx, logID, userID)
	if err != nil {
		return fmt.Errorf("checking log owner: %w", err)
	}
	if !owned {
		return ErrLogNotOwned
	}
	return nil
}
