package workout

import (
	"math"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// OneRepMax estimates a one-repetition maximum with the Epley formula,
// weight × (1 + reps/30), rounded to one decimal. A set with no reps
// estimates to its weight.
func OneRepMax(weight float64, reps int) float64 {
	if reps <= 0 {
		return roundTenth(weight)
	}
	return roundTenth(weight * (1 + float64(reps)/30))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// RecordCandidate is the best set of one exercise within a single workout.
type RecordCandidate struct {
	ExerciseID uuid.UUID
	Weight     float64
	Reps       int
	OneRepMax  float64
	AchievedAt time.Time
}

// BestSets picks, for every exercise in the log, the set with the highest
// estimated one-rep-max. Sets without reps or weight never qualify. On a tie
// the earlier set wins. Candidates keep the order of log.Exercises.
func BestSets(log *models.WorkoutLog) []RecordCandidate {
	var out []RecordCandidate
	index := make(map[uuid.UUID]int)

	for _, ex := range log.Exercises {
		for _, set := range ex.Sets {
			if set.Reps <= 0 || set.Weight <= 0 {
				continue
			}
			c := RecordCandidate{
				ExerciseID: ex.ExerciseID,
				Weight:     set.Weight,
				Reps:       set.Reps,
				OneRepMax:  OneRepMax(set.Weight, set.Reps),
				AchievedAt: set.CompletedAt,
			}
			i, seen := index[ex.ExerciseID]
			if !seen {
				index[ex.ExerciseID] = len(out)
				out = append(out, c)
				continue
			}
			if c.OneRepMax > out[i].OneRepMax {
				out[i] = c
			}
		}
	}
	return out
}

// Beats reports whether c should replace existing. Only a strictly higher
// one-rep-max counts; an equal estimate leaves the record alone.
func (c RecordCandidate) Beats(existing *models.PersonalRecord) bool {
	return existing == nil || c.OneRepMax > existing.OneRepMax
}

// Apply returns the record that results from c replacing existing (which may be nil).
func (c RecordCandidate) Apply(existing *models.PersonalRecord, userID int, logID uuid.UUID, now time.Time) models.PersonalRecord {
	pr := models.PersonalRecord{
		ID:         uuid.New(),
		UserID:     userID,
		ExerciseID: c.ExerciseID,
		CreatedAt:  now,
	}
	if existing != nil {
		pr.ID = existing.ID
		pr.CreatedAt = existing.CreatedAt
	}
	pr.Weight = c.Weight
	pr.Reps = c.Reps
	pr.OneRepMax = c.OneRepMax
	pr.AchievedAt = c.AchievedAt
	pr.LogID = &logID
	pr.UpdatedAt = now
	return pr
}
