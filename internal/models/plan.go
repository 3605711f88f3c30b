package models

import "github.com/google/uuid"

// Split is a shareable training program made of days.
type Split struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SplitDay is one training day inside a split.
type SplitDay struct {
	ID       uuid.UUID `json:"id"`
	SplitID  uuid.UUID `json:"split_id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

// DayExercise is a planned exercise on a split day, ordered by Position.
type DayExercise struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	TargetSets  int       `json:"target_sets"`
	TargetReps  int       `json:"target_reps"`
	RestSeconds int       `json:"rest_seconds"`
}

// DayPlan is a split day with its ordered exercises.
type DayPlan struct {
	Split     Split         `json:"split"`
	Day       SplitDay      `json:"day"`
	Exercises []DayExercise `json:"exercises"`
}
