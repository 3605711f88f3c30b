package workout

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// CompletionResult is what finishing a workout produced.
type CompletionResult struct {
	Log     *models.WorkoutLog      `json:"log"`
	Records []models.PersonalRecord `json:"new_records"`
}

// Complete finalizes the user's active session: it writes the workout log,
// updates personal records and then deletes the session.
//
// The session is deleted last. If the log write fails the session is kept
// for a retry. If a later step fails the log already exists while the session
// remains active; that gap is reported as an error and never retried here.
func (s *Service) Complete(ctx context.Context, sessionID uuid.UUID, userID int, notes string) (*CompletionResult, error) {
	detail, err := s.sessions.FindActiveByUserIDWithDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding active session: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: no active workout session", ErrNotFound)
	}
	if sessionID != uuid.Nil && detail.ID != sessionID {
		return nil, ErrSessionNotOwned
	}

	now := s.now()
	log, err := BuildLog(detail, notes, now)
	if err != nil {
		return nil, err
	}
	log.ID = uuid.New()

	if err := s.logs.CreateWithExercises(ctx, log); err != nil {
		return nil, fmt.Errorf("creating workout log: %w", err)
	}

	records, err := s.applyRecords(ctx, userID, log, now)
	if err != nil {
		s.log.Error("personal records update failed after log was written",
			"log_id", log.ID, "session_id", detail.ID, "error", err)
		return nil, err
	}

	if err := s.sessions.Delete(ctx, detail.ID); err != nil {
		s.log.Error("session delete failed after log was written",
			"log_id", log.ID, "session_id", detail.ID, "error", err)
		return nil, fmt.Errorf("deleting completed session: %w", err)
	}

	s.log.Info("workout completed",
		"session_id", detail.ID,
		"log_id", log.ID,
		"user_id", userID,
		"duration_min", log.DurationMinutes,
		"sets", len(detail.CompletedSets),
		"new_records", len(records),
	)
	return &CompletionResult{Log: log, Records: records}, nil
}

// ImportLog stores an already finished workout (for example from a CSV
// export) and runs it through the same personal-record evaluation.
func (s *Service) ImportLog(ctx context.Context, userID int, log *models.WorkoutLog) (*CompletionResult, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.UserID = userID
	now := s.now()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}

	if err := s.logs.CreateWithExercises(ctx, log); err != nil {
		return nil, fmt.Errorf("creating workout log: %w", err)
	}
	records, err := s.applyRecords(ctx, userID, log, now)
	if err != nil {
		return nil, err
	}
	return &CompletionResult{Log: log, Records: records}, nil
}

// BuildLog turns a session's completed sets into a workout log. It is a pure
// function of its inputs; the caller assigns the log ID.
func BuildLog(detail *models.SessionDetail, notes string, now time.Time) (*models.WorkoutLog, error) {
	sets := make([]models.CompletedSet, len(detail.CompletedSets))
	copy(sets, detail.CompletedSets)
	sort.SliceStable(sets, func(i, j int) bool {
		if sets[i].ExerciseIndex != sets[j].ExerciseIndex {
			return sets[i].ExerciseIndex < sets[j].ExerciseIndex
		}
		return sets[i].SetIndex < sets[j].SetIndex
	})

	splitID, dayID := detail.SplitID, detail.DayID
	log := &models.WorkoutLog{
		UserID:          detail.UserID,
		SplitID:         &splitID,
		DayID:           &dayID,
		Name:            detail.Day.Name,
		DurationMinutes: durationMinutes(detail.StartedAt, now),
		Notes:           notes,
		CompletedAt:     now,
		CreatedAt:       now,
	}

	for _, set := range sets {
		planned, ok := detail.ExerciseAt(set.ExerciseIndex)
		if !ok {
			return nil, fmt.Errorf("%w: set references exercise %d outside the plan", ErrInvalidInput, set.ExerciseIndex)
		}
		n := len(log.Exercises)
		if n == 0 || log.Exercises[n-1].ExerciseIndex != set.ExerciseIndex {
			log.Exercises = append(log.Exercises, models.LogExercise{
				ExerciseID:    planned.ExerciseID,
				ExerciseIndex: set.ExerciseIndex,
				Name:          planned.Name,
			})
			n++
		}
		log.Exercises[n-1].Sets = append(log.Exercises[n-1].Sets, models.LogSet{
			SetIndex:    set.SetIndex,
			Weight:      set.Weight,
			Reps:        set.Reps,
			Notes:       set.Notes,
			CompletedAt: set.CompletedAt,
		})
	}
	return log, nil
}

func durationMinutes(startedAt, now time.Time) int {
	d := now.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int(math.Round(d.Minutes()))
}

// applyRecords upserts every personal record the log improves and returns them.
func (s *Service) applyRecords(ctx context.Context, userID int, log *models.WorkoutLog, now time.Time) ([]models.PersonalRecord, error) {
	var updated []models.PersonalRecord
	for _, c := range BestSets(log) {
		existing, err := s.records.FindByUserIDAndExerciseID(ctx, userID, c.ExerciseID)
		if err != nil {
			return updated, fmt.Errorf("finding personal record for exercise %s: %w", c.ExerciseID, err)
		}
		if !c.Beats(existing) {
			continue
		}
		pr := c.Apply(existing, userID, log.ID, now)
		if err := s.records.Upsert(ctx, &pr); err != nil {
			return updated, fmt.Errorf("upserting personal record for exercise %s: %w", c.ExerciseID, err)
		}
		updated = append(updated, pr)
	}
	return updated, nil
}
