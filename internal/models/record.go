package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonalRecord is a user's best estimated one-rep-max for an exercise.
type PersonalRecord struct {
	ID         uuid.UUID  `json:"id"`
	UserID     int        `json:"user_id"`
	ExerciseID uuid.UUID  `json:"exercise_id"`
	Weight     float64    `json:"weight"`
	Reps       int        `json:"reps"`
	OneRepMax  float64    `json:"one_rep_max"`
	AchievedAt time.Time  `json:"achieved_at"`
	LogID      *uuid.UUID `json:"log_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
