package alpha

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// ResolveFunc maps an exercise name and equipment to a catalog exercise ID.
type ResolveFunc func(ctx context.Context, name, equipment string) (uuid.UUID, error)

// ToLog converts a session into a workout log. Warmup sets are dropped and
// working sets are renumbered from zero. All sets are stamped with the
// session end since the export has no per-set times.
func ToLog(ctx context.Context, s Session, resolve ResolveFunc) (*models.WorkoutLog, int, error) {
	end := s.Start.Add(s.Duration)
	log := &models.WorkoutLog{
		Name:            s.Name,
		DurationMinutes: int(math.Round(s.Duration.Minutes())),
		CompletedAt:     end,
	}

	warmups := 0
	for _, ex := range s.Exercises {
		id, err := resolve(ctx, ex.Name, ex.Equipment)
		if err != nil {
			return nil, 0, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
		}

		le := models.LogExercise{
			ExerciseID:    id,
			ExerciseIndex: len(log.Exercises),
			Name:          ex.Name,
		}
		for _, set := range ex.Sets {
			if set.Warmup {
				warmups++
				continue
			}
			le.Sets = append(le.Sets, models.LogSet{
				SetIndex:    len(le.Sets),
				Weight:      set.Weight,
				Reps:        set.Reps,
				Notes:       setNotes(set),
				CompletedAt: end,
			})
		}
		if len(le.Sets) > 0 {
			log.Exercises = append(log.Exercises, le)
		}
	}
	return log, warmups, nil
}

func setNotes(s Set) string {
	var parts []string
	if s.Bodyweight {
		parts = append(parts, "bodyweight +"+strconv.FormatFloat(s.Weight, 'f', -1, 64)+" kg")
	}
	if s.RIR > 0 {
		parts = append(parts, "RIR "+strconv.FormatFloat(s.RIR, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
