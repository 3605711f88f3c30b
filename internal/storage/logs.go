package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LogStore implements workout.LogStore on Postgres.
type LogStore struct {
	db *DB
}

const logColumns = `id, user_id, split_id, day_id, name, duration_minutes, notes, completed_at, created_at`

func scanLog(row pgx.Row) (*models.WorkoutLog, error) {
	var l models.WorkoutLog
	err := row.Scan(&l.ID, &l.UserID, &l.SplitID, &l.DayID, &l.Name,
		&l.DurationMinutes, &l.Notes, &l.CompletedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLogRows(rows pgx.Rows) ([]models.WorkoutLog, error) {
	defer rows.Close()
	var out []models.WorkoutLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout log: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// CreateWithExercises writes the log, its exercises and all sets in a single
// transaction.
func (st *LogStore) CreateWithExercises(ctx context.Context, log *models.WorkoutLog) error {
	err := pgx.BeginFunc(ctx, st.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_logs (`+logColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			log.ID, log.UserID, log.SplitID, log.DayID, log.Name,
			log.DurationMinutes, log.Notes, log.CompletedAt, log.CreatedAt,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, ex := range log.Exercises {
			batch.Queue(
				`INSERT INTO workout_log_exercises (log_id, exercise_index, exercise_id, name) VALUES ($1,$2,$3,$4)`,
				log.ID, ex.ExerciseIndex, ex.ExerciseID, ex.Name)
			for _, set := range ex.Sets {
				batch.Queue(
					`INSERT INTO workout_log_sets (log_id, exercise_index, set_index, weight, reps, notes, completed_at)
					 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
					log.ID, ex.ExerciseIndex, set.SetIndex, set.Weight, set.Reps, set.Notes, set.CompletedAt)
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("inserting workout log: %w", mapErr(err))
	}
	return nil
}

// FindByID returns the log header without exercises.
func (st *LogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkoutLog, error) {
	l, err := scanLog(st.db.Pool.QueryRow(ctx, `SELECT `+logColumns+` FROM workout_logs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying workout log %s: %w", id, mapErr(err))
	}
	return l, nil
}

// FindByIDWithDetails returns the log with exercises and sets in order.
func (st *LogStore) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.WorkoutLog, error) {
	l, err := st.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := st.db.Pool.Query(ctx,
		`SELECT e.exercise_index, e.exercise_id, e.name, s.set_index, s.weight, s.reps, s.notes, s.completed_at
		 FROM workout_log_exercises e
		 JOIN workout_log_sets s ON s.log_id = e.log_id AND s.exercise_index = e.exercise_index
		 WHERE e.log_id = $1
		 ORDER BY e.exercise_index, s.set_index`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout log sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.LogExercise
		var set models.LogSet
		if err := rows.Scan(&ex.ExerciseIndex, &ex.ExerciseID, &ex.Name,
			&set.SetIndex, &set.Weight, &set.Reps, &set.Notes, &set.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning workout log set: %w", err)
		}
		n := len(l.Exercises)
		if n == 0 || l.Exercises[n-1].ExerciseIndex != ex.ExerciseIndex {
			l.Exercises = append(l.Exercises, ex)
			n++
		}
		l.Exercises[n-1].Sets = append(l.Exercises[n-1].Sets, set)
	}
	return l, rows.Err()
}

// FindByUserID returns the user's newest logs.
func (st *LogStore) FindByUserID(ctx context.Context, userID, limit int) ([]models.WorkoutLog, error) {
	rows, err := st.db.Pool.Query(ctx,
		`SELECT `+logColumns+` FROM workout_logs
		 WHERE user_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workout logs: %w", err)
	}
	return scanLogRows(rows)
}

// FindByUserIDAndDateRange returns logs completed in [start, end), newest first.
func (st *LogStore) FindByUserIDAndDateRange(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error) {
	rows, err := st.db.Pool.Query(ctx,
		`SELECT `+logColumns+` FROM workout_logs
		 WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
		 ORDER BY completed_at DESC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workout logs: %w", err)
	}
	return scanLogRows(rows)
}

// Update sets the notes of a log.
func (st *LogStore) Update(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := st.db.Pool.Exec(ctx, `UPDATE workout_logs SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("updating workout log %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

func (st *LogStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := st.db.Pool.Exec(ctx, `DELETE FROM workout_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting workout log %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

func (st *LogStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := st.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workout_logs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking workout log: %w", err)
	}
	return exists, nil
}

func (st *LogStore) IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	var owned bool
	err := st.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workout_logs WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking workout log owner: %w", err)
	}
	return owned, nil
}

// GetUserStats aggregates the user's logs. The streak is computed from the
// distinct UTC days on which the user trained.
func (st *LogStore) GetUserStats(ctx context.Context, userID int, now time.Time) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := st.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0), COALESCE(AVG(duration_minutes), 0)::float8, MAX(completed_at)
		 FROM workout_logs WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.TotalDuration, &stats.AverageDuration, &stats.LastWorkoutDate)
	if err != nil {
		return nil, fmt.Errorf("aggregating workout logs: %w", err)
	}
	if stats.TotalWorkouts == 0 {
		return stats, nil
	}

	rows, err := st.db.Pool.Query(ctx,
		`SELECT DISTINCT date_trunc('day', completed_at AT TIME ZONE 'UTC')
		 FROM workout_logs WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout days: %w", err)
	}
	days, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scanning workout days: %w", err)
	}
	stats.CurrentStreak = workout.CurrentStreak(days, now)
	return stats, nil
}

// FindExerciseHistory returns the user's logged sets for one exercise,
// newest workout first.
func (st *LogStore) FindExerciseHistory(ctx context.Context, userID int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error) {
	rows, err := st.db.Pool.Query(ctx,
		`SELECT l.id, l.completed_at, s.set_index, s.weight, s.reps
		 FROM workout_log_sets s
		 JOIN workout_log_exercises e ON e.log_id = s.log_id AND e.exercise_index = s.exercise_index
		 JOIN workout_logs l ON l.id = s.log_id
		 WHERE l.user_id = $1 AND e.exercise_id = $2
		 ORDER BY l.completed_at DESC, s.set_index
		 LIMIT $3`, userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()

	var out []models.ExerciseHistoryEntry
	for rows.Next() {
		var e models.ExerciseHistoryEntry
		if err := rows.Scan(&e.LogID, &e.CompletedAt, &e.SetIndex, &e.Weight, &e.Reps); err != nil {
			return nil, fmt.Errorf("scanning exercise history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (st *LogStore) HasCompletedWorkoutForSplit(ctx context.Context, userID int, splitID uuid.UUID) (bool, error) {
	var done bool
	err := st.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workout_logs WHERE user_id = $1 AND split_id = $2)`, userID, splitID,
	).Scan(&done)
	if err != nil {
		return false, fmt.Errorf("checking split completion: %w", err)
	}
	return done, nil
}
