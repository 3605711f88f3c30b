package workout

import (
	"math"

	"github.com/claude/splitlog/internal/models"
)

// ApplyPatch merges the present fields of patch into s. Absent fields are
// left as they are; RestRemainingSeconds or PausedAt set to null clear the
// stored value.
func ApplyPatch(s *models.WorkoutSession, patch models.SessionPatch) {
	if patch.CurrentExerciseIndex != nil {
		s.CurrentExerciseIndex = *patch.CurrentExerciseIndex
	}
	if patch.CurrentSetIndex != nil {
		s.CurrentSetIndex = *patch.CurrentSetIndex
	}
	if patch.Phase != nil {
		s.Phase = *patch.Phase
	}
	if patch.ExerciseElapsedSeconds != nil {
		s.ExerciseElapsedSeconds = *patch.ExerciseElapsedSeconds
	}
	if patch.RestRemainingSeconds.Set {
		if patch.RestRemainingSeconds.Value == nil {
			s.RestRemainingSeconds = nil
		} else {
			v := *patch.RestRemainingSeconds.Value
			s.RestRemainingSeconds = &v
		}
	}
	if patch.PausedAt.Set {
		if patch.PausedAt.Time == nil {
			s.PausedAt = nil
		} else {
			t := *patch.PausedAt.Time
			s.PausedAt = &t
		}
	}
}

// validatePatch checks each present field on its own. Phase/rest consistency
// across fields is the caller's responsibility.
func validatePatch(patch models.SessionPatch) error {
	verr := &ValidationError{}
	if v := patch.CurrentExerciseIndex; v != nil && *v < 0 {
		verr.add("currentExerciseIndex", "must be a non-negative integer")
	}
	if v := patch.CurrentSetIndex; v != nil && *v < 0 {
		verr.add("currentSetIndex", "must be a non-negative integer")
	}
	if v := patch.Phase; v != nil && !v.Valid() {
		verr.add("phase", `must be "exercise" or "rest"`)
	}
	if v := patch.ExerciseElapsedSeconds; v != nil && !validTimer(*v) {
		verr.add("exerciseElapsedSeconds", "must be a non-negative integer")
	}
	if v := patch.RestRemainingSeconds.Value; v != nil && !validTimer(*v) {
		verr.add("restRemainingSeconds", "must be a non-negative integer")
	}
	return verr.errOrNil()
}

func validTimer(v int) bool {
	return v >= 0 && v <= math.MaxInt32
}
