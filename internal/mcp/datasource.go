package mcp

import (
	"context"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

// DataSource abstracts the read side used by MCP tools. Both
// *workout.Service (in-process) and HTTPClient (remote via REST API)
// satisfy this interface.
type DataSource interface {
	GetActive(ctx context.Context, userID int) (*models.SessionDetail, error)
	Logs(ctx context.Context, userID, limit int) ([]models.WorkoutLog, error)
	LogsBetween(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error)
	Log(ctx context.Context, logID uuid.UUID, userID int) (*models.WorkoutLog, error)
	PersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	Stats(ctx context.Context, userID int) (*models.UserStats, error)
	ExerciseHistory(ctx context.Context, userID int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error)
}

// Compile-time check: *workout.Service satisfies DataSource.
var _ DataSource = (*workout.Service)(nil)
