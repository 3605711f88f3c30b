package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/splitlog/internal/ingest"
	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

// Importer stores converted logs. *workout.Service satisfies it.
type Importer interface {
	LogsBetween(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error)
	ImportLog(ctx context.Context, userID int, log *models.WorkoutLog) (*workout.CompletionResult, error)
}

// ExerciseResolver maps exported exercise names onto the catalog.
type ExerciseResolver interface {
	FindOrCreateExercise(ctx context.Context, name, equipment string) (uuid.UUID, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	logs      Importer
	exercises ExerciseResolver
	log       *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(logs Importer, exercises ExerciseResolver, log *slog.Logger) *Provider {
	return &Provider{logs: logs, exercises: exercises, log: log}
}

// Ingest parses a CSV export and stores each session as a workout log.
// Sessions already present (same name and completion time) are skipped, so
// re-importing an export is harmless.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{LogsReceived: len(sessions)}
	for _, s := range sessions {
		log, warmups, err := ToLog(ctx, s, p.exercises.FindOrCreateExercise)
		if err != nil {
			return result, err
		}
		sets := countSets(log)
		result.SetsReceived += sets
		result.WarmupsSkipped += warmups

		dup, err := p.alreadyImported(ctx, userID, log)
		if err != nil {
			return result, err
		}
		if dup || len(log.Exercises) == 0 {
			result.LogsSkipped++
			continue
		}

		res, err := p.logs.ImportLog(ctx, userID, log)
		if err != nil {
			return result, fmt.Errorf("importing session %q (%s): %w", s.Name, s.Start.Format("2006-01-02"), err)
		}
		result.LogsInserted++
		result.SetsInserted += sets
		result.RecordsUpdated += len(res.Records)
	}

	p.log.Info("alpha import finished",
		"user_id", userID,
		"received", result.LogsReceived,
		"inserted", result.LogsInserted,
		"skipped", result.LogsSkipped,
		"records", result.RecordsUpdated,
	)
	return result, nil
}

func (p *Provider) alreadyImported(ctx context.Context, userID int, log *models.WorkoutLog) (bool, error) {
	existing, err := p.logs.LogsBetween(ctx, userID, log.CompletedAt, log.CompletedAt.Add(time.Second))
	if err != nil {
		return false, fmt.Errorf("checking existing logs: %w", err)
	}
	for _, l := range existing {
		if l.Name == log.Name {
			return true, nil
		}
	}
	return false, nil
}

func countSets(log *models.WorkoutLog) int {
	n := 0
	for _, ex := range log.Exercises {
		n += len(ex.Sets)
	}
	return n
}
