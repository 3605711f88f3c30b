package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlanStore implements workout.PlanStore.
type PlanStore struct {
	db *DB
}

// FindDayPlan returns the split day with its ordered exercises.
func (st *PlanStore) FindDayPlan(ctx context.Context, splitID, dayID uuid.UUID) (*models.DayPlan, error) {
	return loadDayPlan(ctx, st.db.Pool, splitID, dayID)
}

func loadDayPlan(ctx context.Context, q querier, splitID, dayID uuid.UUID) (*models.DayPlan, error) {
	var p models.DayPlan
	err := q.QueryRow(ctx,
		`SELECT s.id, s.name, d.id, d.split_id, d.name, d.position
		 FROM split_days d JOIN splits s ON s.id = d.split_id
		 WHERE d.id = $1 AND d.split_id = $2`, dayID, splitID,
	).Scan(&p.Split.ID, &p.Split.Name, &p.Day.ID, &p.Day.SplitID, &p.Day.Name, &p.Day.Position)
	if err != nil {
		return nil, fmt.Errorf("querying split day %s: %w", dayID, mapErr(err))
	}

	rows, err := q.Query(ctx,
		`SELECT e.id, e.name, x.position, x.target_sets, x.target_reps, x.rest_seconds
		 FROM split_day_exercises x JOIN exercises e ON e.id = x.exercise_id
		 WHERE x.day_id = $1
		 ORDER BY x.position`, dayID)
	if err != nil {
		return nil, fmt.Errorf("querying day exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.DayExercise
		if err := rows.Scan(&e.ExerciseID, &e.Name, &e.Position, &e.TargetSets, &e.TargetReps, &e.RestSeconds); err != nil {
			return nil, fmt.Errorf("scanning day exercise: %w", err)
		}
		p.Exercises = append(p.Exercises, e)
	}
	return &p, rows.Err()
}

// FindOrCreateExercise returns the ID of the exercise with the given name and
// equipment, creating it on first use.
func (st *PlanStore) FindOrCreateExercise(ctx context.Context, name, equipment string) (uuid.UUID, error) {
	return findOrCreateExercise(ctx, st.db.Pool, name, equipment)
}

func findOrCreateExercise(ctx context.Context, q querier, name, equipment string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: exercise name is empty", workout.ErrInvalidInput)
	}
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`INSERT INTO exercises (id, name, equipment) VALUES ($1, $2, $3)
		 ON CONFLICT (name, equipment) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		uuid.New(), name, strings.TrimSpace(equipment),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting exercise %q: %w", name, err)
	}
	return id, nil
}

// SplitInput describes a split to create.
type SplitInput struct {
	Name string          `json:"name"`
	Days []SplitDayInput `json:"days"`
}

// SplitDayInput is one day of a SplitInput.
type SplitDayInput struct {
	Name      string               `json:"name"`
	Exercises []SplitExerciseInput `json:"exercises"`
}

// SplitExerciseInput is one planned exercise of a SplitDayInput.
type SplitExerciseInput struct {
	Name        string `json:"name"`
	Equipment   string `json:"equipment"`
	TargetSets  int    `json:"target_sets"`
	TargetReps  int    `json:"target_reps"`
	RestSeconds int    `json:"rest_seconds"`
}

// CreateSplit stores a split with its days and exercises in one transaction
// and returns the resulting day plans in order.
func (db *DB) CreateSplit(ctx context.Context, ownerID int, in SplitInput) ([]models.DayPlan, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.Days) == 0 {
		return nil, fmt.Errorf("%w: a split needs a name and at least one day", workout.ErrInvalidInput)
	}

	split := models.Split{ID: uuid.New(), Name: strings.TrimSpace(in.Name)}
	var plans []models.DayPlan

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO splits (id, name, owner_id) VALUES ($1, $2, $3)`,
			split.ID, split.Name, ownerID,
		); err != nil {
			return err
		}

		for pos, d := range in.Days {
			day := models.SplitDay{ID: uuid.New(), SplitID: split.ID, Name: d.Name, Position: pos}
			if _, err := tx.Exec(ctx,
				`INSERT INTO split_days (id, split_id, name, position) VALUES ($1, $2, $3, $4)`,
				day.ID, day.SplitID, day.Name, day.Position,
			); err != nil {
				return err
			}

			plan := models.DayPlan{Split: split, Day: day}
			for i, e := range d.Exercises {
				exID, err := findOrCreateExercise(ctx, tx, e.Name, e.Equipment)
				if err != nil {
					return err
				}
				de := models.DayExercise{
					ExerciseID:  exID,
					Name:        strings.TrimSpace(e.Name),
					Position:    i,
					TargetSets:  orDefault(e.TargetSets, 3),
					TargetReps:  orDefault(e.TargetReps, 10),
					RestSeconds: orDefault(e.RestSeconds, 90),
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO split_day_exercises (day_id, exercise_id, position, target_sets, target_reps, rest_seconds)
					 VALUES ($1, $2, $3, $4, $5, $6)`,
					day.ID, de.ExerciseID, de.Position, de.TargetSets, de.TargetReps, de.RestSeconds,
				); err != nil {
					return err
				}
				plan.Exercises = append(plan.Exercises, de)
			}
			plans = append(plans, plan)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating split: %w", mapErr(err))
	}
	return plans, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
