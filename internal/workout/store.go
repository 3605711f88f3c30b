package workout

import (
	"context"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// SessionStore persists the single mutable in-progress session per user.
// Create must fail with ErrConflict when the user already has a session.
type SessionStore interface {
	Create(ctx context.Context, s *models.WorkoutSession) error
	// Update writes only the fields present in patch and bumps LastUpdatedAt.
	Update(ctx context.Context, id uuid.UUID, patch models.SessionPatch) (*models.WorkoutSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error)
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error)
	// FindActiveByUserID returns (nil, nil) when the user has no session.
	FindActiveByUserID(ctx context.Context, userID int) (*models.WorkoutSession, error)
	FindActiveByUserIDWithDetails(ctx context.Context, userID int) (*models.SessionDetail, error)
	IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// AppendSet records a completed set; a repeated position fails with ErrConflict.
	AppendSet(ctx context.Context, sessionID uuid.UUID, set models.CompletedSet) error
}

// LogStore persists completed workout logs.
type LogStore interface {
	// CreateWithExercises stores the log and all nested sets atomically.
	CreateWithExercises(ctx context.Context, log *models.WorkoutLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkoutLog, error)
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.WorkoutLog, error)
	FindByUserID(ctx context.Context, userID, limit int) ([]models.WorkoutLog, error)
	FindByUserIDAndDateRange(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error)
	// Update changes the notes of a log; sets are never rewritten.
	Update(ctx context.Context, id uuid.UUID, notes string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error)
	// GetUserStats aggregates the user's logs; the streak is counted back from now.
	GetUserStats(ctx context.Context, userID int, now time.Time) (*models.UserStats, error)
	FindExerciseHistory(ctx context.Context, userID int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error)
	HasCompletedWorkoutForSplit(ctx context.Context, userID int, splitID uuid.UUID) (bool, error)
}

// RecordStore persists personal records keyed by (user, exercise).
type RecordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PersonalRecord, error)
	// FindByUserIDAndExerciseID returns (nil, nil) when no record exists.
	FindByUserIDAndExerciseID(ctx context.Context, userID int, exerciseID uuid.UUID) (*models.PersonalRecord, error)
	FindByUserID(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	Upsert(ctx context.Context, pr *models.PersonalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error)
}

// PlanStore reads the split catalog.
type PlanStore interface {
	// FindDayPlan returns ErrNotFound when the day does not belong to the split.
	FindDayPlan(ctx context.Context, splitID, dayID uuid.UUID) (*models.DayPlan, error)
	FindOrCreateExercise(ctx context.Context, name, equipment string) (uuid.UUID, error)
}
