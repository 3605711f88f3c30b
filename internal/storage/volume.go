package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumePeriod is the lifting volume of one week or month.
type VolumePeriod struct {
	Period          string  `json:"period"`
	Workouts        int     `json:"workouts"`
	Sets            int     `json:"sets"`
	Reps            int     `json:"reps"`
	TonnageKg       float64 `json:"tonnage_kg"`
	DurationMinutes int     `json:"duration_minutes"`
	AvgSetsPerLog   float64 `json:"avg_sets_per_workout"`
}

// ExerciseVolume is the per-exercise total over a range.
type ExerciseVolume struct {
	Name      string  `json:"name"`
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	TonnageKg float64 `json:"tonnage_kg"`
	MaxWeight float64 `json:"max_weight_kg"`
}

// VolumeSummary is the response of GetVolumeSummary.
type VolumeSummary struct {
	Bucket    string           `json:"bucket"`
	Periods   []VolumePeriod   `json:"periods"`
	Exercises []ExerciseVolume `json:"exercises"`
}

// GetVolumeSummary aggregates a user's logged sets in [start, end) per
// bucket ("week" or "month"), newest period first, plus per-exercise totals
// ordered by tonnage.
func (db *DB) GetVolumeSummary(ctx context.Context, userID int, start, end time.Time, bucket string) (*VolumeSummary, error) {
	result := &VolumeSummary{Bucket: bucket, Periods: []VolumePeriod{}, Exercises: []ExerciseVolume{}}

	periodRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, l.completed_at)::date AS period,
		        COUNT(DISTINCT l.id)::int,
		        COUNT(s.set_index)::int,
		        COALESCE(SUM(s.reps), 0)::int,
		        COALESCE(SUM(s.weight * s.reps), 0)
		 FROM workout_logs l
		 LEFT JOIN workout_log_sets s ON s.log_id = l.id
		 WHERE l.user_id = $2 AND l.completed_at >= $3 AND l.completed_at < $4
		 GROUP BY period
		 ORDER BY period DESC`,
		bucket, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying volume per %s: %w", bucket, err)
	}
	defer periodRows.Close()

	index := make(map[string]int)
	for periodRows.Next() {
		var periodTime time.Time
		var p VolumePeriod
		if err := periodRows.Scan(&periodTime, &p.Workouts, &p.Sets, &p.Reps, &p.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning volume period: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Workouts > 0 {
			p.AvgSetsPerLog = float64(p.Sets) / float64(p.Workouts)
		}
		index[p.Period] = len(result.Periods)
		result.Periods = append(result.Periods, p)
	}
	if err := periodRows.Err(); err != nil {
		return nil, err
	}

	// Durations are summed per log, not per joined set row.
	durRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, completed_at)::date AS period,
		        COALESCE(SUM(duration_minutes), 0)::int
		 FROM workout_logs
		 WHERE user_id = $2 AND completed_at >= $3 AND completed_at < $4
		 GROUP BY period`,
		bucket, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying duration per %s: %w", bucket, err)
	}
	defer durRows.Close()

	for durRows.Next() {
		var periodTime time.Time
		var minutes int
		if err := durRows.Scan(&periodTime, &minutes); err != nil {
			return nil, fmt.Errorf("scanning duration period: %w", err)
		}
		if i, ok := index[periodTime.Format("2006-01-02")]; ok {
			result.Periods[i].DurationMinutes = minutes
		}
	}
	if err := durRows.Err(); err != nil {
		return nil, err
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT e.name,
		        COUNT(*)::int,
		        COALESCE(SUM(s.reps), 0)::int,
		        COALESCE(SUM(s.weight * s.reps), 0),
		        COALESCE(MAX(s.weight), 0)
		 FROM workout_log_sets s
		 JOIN workout_log_exercises e ON e.log_id = s.log_id AND e.exercise_index = s.exercise_index
		 JOIN workout_logs l ON l.id = s.log_id
		 WHERE l.user_id = $1 AND l.completed_at >= $2 AND l.completed_at < $3
		 GROUP BY e.exercise_id, e.name
		 ORDER BY SUM(s.weight * s.reps) DESC, e.name`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying exercise volume: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var e ExerciseVolume
		if err := exRows.Scan(&e.Name, &e.Sets, &e.Reps, &e.TonnageKg, &e.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise volume: %w", err)
		}
		result.Exercises = append(result.Exercises, e)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
