package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionStore implements workout.SessionStore on Postgres.
type SessionStore struct {
	db *DB
}

const sessionColumns = `id, user_id, split_id, day_id, current_exercise_index, current_set_index, phase,
	exercise_elapsed_seconds, rest_remaining_seconds, started_at, paused_at, last_updated_at, created_at`

func scanSession(row pgx.Row) (*models.WorkoutSession, error) {
	var s models.WorkoutSession
	var phase string
	err := row.Scan(&s.ID, &s.UserID, &s.SplitID, &s.DayID,
		&s.CurrentExerciseIndex, &s.CurrentSetIndex, &phase,
		&s.ExerciseElapsedSeconds, &s.RestRemainingSeconds,
		&s.StartedAt, &s.PausedAt, &s.LastUpdatedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Phase = models.Phase(phase)
	return &s, nil
}

// Create inserts a new session. The unique user_id column rejects a second
// session for the same user with workout.ErrConflict.
func (st *SessionStore) Create(ctx context.Context, s *models.WorkoutSession) error {
	_, err := st.db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, split_id, day_id, current_exercise_index, current_set_index,
		 phase, exercise_elapsed_seconds, rest_remaining_seconds, started_at, paused_at, last_updated_at, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.UserID, s.SplitID, s.DayID, s.CurrentExerciseIndex, s.CurrentSetIndex,
		string(s.Phase), s.ExerciseElapsedSeconds, s.RestRemainingSeconds,
		s.StartedAt, s.PausedAt, s.LastUpdatedAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", mapErr(err))
	}
	return nil
}

// buildSessionUpdate renders an UPDATE touching only the columns present in
// patch. last_updated_at is always bumped.
func buildSessionUpdate(id uuid.UUID, patch models.SessionPatch) (string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if v := patch.CurrentExerciseIndex; v != nil {
		add("current_exercise_index", *v)
	}
	if v := patch.CurrentSetIndex; v != nil {
		add("current_set_index", *v)
	}
	if v := patch.Phase; v != nil {
		add("phase", string(*v))
	}
	if v := patch.ExerciseElapsedSeconds; v != nil {
		add("exercise_elapsed_seconds", *v)
	}
	if patch.RestRemainingSeconds.Set {
		add("rest_remaining_seconds", patch.RestRemainingSeconds.Value)
	}
	if patch.PausedAt.Set {
		add("paused_at", patch.PausedAt.Time)
	}
	sets = append(sets, "last_updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE workout_sessions SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), sessionColumns)
	return query, args
}

// Update writes the present fields of patch and returns the stored session.
func (st *SessionStore) Update(ctx context.Context, id uuid.UUID, patch models.SessionPatch) (*models.WorkoutSession, error) {
	query, args := buildSessionUpdate(id, patch)
	s, err := scanSession(st.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("updating session %s: %w", id, mapErr(err))
	}
	if s.CompletedSets, err = loadSessionSets(ctx, st.db.Pool, id); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes the session and its recorded sets.
func (st *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := st.db.Pool.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

// FindByID returns a session with its completed sets.
func (st *SessionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	s, err := scanSession(st.db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, mapErr(err))
	}
	if s.CompletedSets, err = loadSessionSets(ctx, st.db.Pool, id); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByIDWithDetails returns a session joined with its day plan.
func (st *SessionStore) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	s, err := st.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.withDetails(ctx, s)
}

// FindActiveByUserID returns the user's session, or nil if there is none.
func (st *SessionStore) FindActiveByUserID(ctx context.Context, userID int) (*models.WorkoutSession, error) {
	s, err := scanSession(st.db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	if s.CompletedSets, err = loadSessionSets(ctx, st.db.Pool, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// FindActiveByUserIDWithDetails is FindActiveByUserID plus the day plan.
func (st *SessionStore) FindActiveByUserIDWithDetails(ctx context.Context, userID int) (*models.SessionDetail, error) {
	s, err := st.FindActiveByUserID(ctx, userID)
	if err != nil || s == nil {
		return nil, err
	}
	return st.withDetails(ctx, s)
}

func (st *SessionStore) withDetails(ctx context.Context, s *models.WorkoutSession) (*models.SessionDetail, error) {
	plan, err := loadDayPlan(ctx, st.db.Pool, s.SplitID, s.DayID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{
		WorkoutSession: *s,
		Split:          plan.Split,
		Day:            plan.Day,
		Exercises:      plan.Exercises,
	}, nil
}

// IsOwnedByUser reports whether the session exists and belongs to userID.
func (st *SessionStore) IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	var owned bool
	err := st.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workout_sessions WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking session owner: %w", err)
	}
	return owned, nil
}

// Exists reports whether the session exists.
func (st *SessionStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := st.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workout_sessions WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return exists, nil
}

// AppendSet inserts a completed set. The (session, exercise, set) primary
// key turns a repeat into workout.ErrConflict.
func (st *SessionStore) AppendSet(ctx context.Context, sessionID uuid.UUID, set models.CompletedSet) error {
	err := pgx.BeginFunc(ctx, st.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_sets (session_id, exercise_index, set_index, weight, reps, notes, completed_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			sessionID, set.ExerciseIndex, set.SetIndex, set.Weight, set.Reps, set.Notes, set.CompletedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE workout_sessions SET last_updated_at = NOW() WHERE id = $1`, sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("appending set to session %s: %w", sessionID, mapErr(err))
	}
	return nil
}

// loadSessionSets returns the recorded sets in insertion order.
func loadSessionSets(ctx context.Context, q querier, sessionID uuid.UUID) ([]models.CompletedSet, error) {
	rows, err := q.Query(ctx,
		`SELECT exercise_index, set_index, weight, reps, notes, completed_at
		 FROM session_sets WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()

	var sets []models.CompletedSet
	for rows.Next() {
		var cs models.CompletedSet
		if err := rows.Scan(&cs.ExerciseIndex, &cs.SetIndex, &cs.Weight, &cs.Reps, &cs.Notes, &cs.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		sets = append(sets, cs)
	}
	return sets, rows.Err()
}
