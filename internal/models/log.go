package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutLog is the immutable record of a finished workout.
type WorkoutLog struct {
	ID              uuid.UUID     `json:"id"`
	UserID          int           `json:"user_id"`
	SplitID         *uuid.UUID    `json:"split_id"`
	DayID           *uuid.UUID    `json:"day_id"`
	Name            string        `json:"name,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	Notes           string        `json:"notes"`
	CompletedAt     time.Time     `json:"completed_at"`
	CreatedAt       time.Time     `json:"created_at"`
	Exercises       []LogExercise `json:"exercises,omitempty"`
}

// LogExercise groups the sets performed for one exercise.
type LogExercise struct {
	ExerciseID    uuid.UUID `json:"exercise_id"`
	ExerciseIndex int       `json:"exercise_index"`
	Name          string    `json:"name"`
	Sets          []LogSet  `json:"sets"`
}

// LogSet is one set inside a log entry.
type LogSet struct {
	SetIndex    int       `json:"set_index"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
	Notes       string    `json:"notes,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// UserStats summarizes a user's workout history.
type UserStats struct {
	TotalWorkouts   int        `json:"total_workouts"`
	CurrentStreak   int        `json:"current_streak"`
	TotalDuration   int        `json:"total_duration"`
	AverageDuration float64    `json:"average_duration"`
	LastWorkoutDate *time.Time `json:"last_workout_date"`
}

// ExerciseHistoryEntry is one logged set of a given exercise.
type ExerciseHistoryEntry struct {
	LogID       uuid.UUID `json:"log_id"`
	CompletedAt time.Time `json:"completed_at"`
	SetIndex    int       `json:"set_index"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
}
