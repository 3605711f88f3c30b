package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the timer currently driving an active session.
type Phase string

const (
	PhaseExercise Phase = "exercise"
	PhaseRest     Phase = "rest"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseExercise || p == PhaseRest
}

// WorkoutSession is a user's single in-progress workout.
type WorkoutSession struct {
	ID                     uuid.UUID      `json:"id"`
	UserID                 int            `json:"user_id"`
	SplitID                uuid.UUID      `json:"split_id"`
	DayID                  uuid.UUID      `json:"day_id"`
	CurrentExerciseIndex   int            `json:"current_exercise_index"`
	CurrentSetIndex        int            `json:"current_set_index"`
	Phase                  Phase          `json:"phase"`
	ExerciseElapsedSeconds int            `json:"exercise_elapsed_seconds"`
	RestRemainingSeconds   *int           `json:"rest_remaining_seconds"`
	StartedAt              time.Time      `json:"started_at"`
	PausedAt               *time.Time     `json:"paused_at"`
	LastUpdatedAt          time.Time      `json:"last_updated_at"`
	CompletedSets          []CompletedSet `json:"completed_sets"`
	CreatedAt              time.Time      `json:"created_at"`
}

// Paused reports whether the session timers are frozen.
func (s *WorkoutSession) Paused() bool {
	return s.PausedAt != nil
}

// HasSet reports whether a set was already recorded at the given position.
func (s *WorkoutSession) HasSet(exerciseIndex, setIndex int) bool {
	for _, cs := range s.CompletedSets {
		if cs.ExerciseIndex == exerciseIndex && cs.SetIndex == setIndex {
			return true
		}
	}
	return false
}

// CompletedSet is one recorded performance at a plan position.
type CompletedSet struct {
	ExerciseIndex int       `json:"exercise_index"`
	SetIndex      int       `json:"set_index"`
	Weight        float64   `json:"weight"`
	Reps          int       `json:"reps"`
	Notes         string    `json:"notes,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// SessionDetail is a session joined with the plan it was started from.
type SessionDetail struct {
	WorkoutSession
	Split     Split         `json:"split"`
	Day       SplitDay      `json:"day"`
	Exercises []DayExercise `json:"exercises"`
}

// ExerciseAt returns the planned exercise at index, if any.
func (d *SessionDetail) ExerciseAt(index int) (DayExercise, bool) {
	if index < 0 || index >= len(d.Exercises) {
		return DayExercise{}, false
	}
	return d.Exercises[index], true
}

// SessionPatch carries the fields of a partial session update.
// A nil pointer (or an unset PausedAt) leaves the stored value untouched.
type SessionPatch struct {
	CurrentExerciseIndex   *int         `json:"currentExerciseIndex,omitempty"`
	CurrentSetIndex        *int         `json:"currentSetIndex,omitempty"`
	Phase                  *Phase       `json:"phase,omitempty"`
	ExerciseElapsedSeconds *int         `json:"exerciseElapsedSeconds,omitempty"`
	RestRemainingSeconds   OptionalInt  `json:"restRemainingSeconds"`
	PausedAt               OptionalTime `json:"pausedAt"`
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.CurrentExerciseIndex == nil &&
		p.CurrentSetIndex == nil &&
		p.Phase == nil &&
		p.ExerciseElapsedSeconds == nil &&
		!p.RestRemainingSeconds.Set &&
		!p.PausedAt.Set
}

// SetInput is a set reported by the client for the current session.
type SetInput struct {
	ExerciseIndex int     `json:"exerciseIndex"`
	SetIndex      int     `json:"setIndex"`
	Weight        float64 `json:"weight"`
	Reps          int     `json:"reps"`
	Notes         string  `json:"notes"`
}

// SyncSnapshot is a periodic timer report from a client.
type SyncSnapshot struct {
	SessionID              uuid.UUID
	ExerciseElapsedSeconds *int
	RestRemainingSeconds   *int
	PausedAt               OptionalTime
}
