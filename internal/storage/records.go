package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordStore implements workout.RecordStore on Postgres.
type RecordStore struct {
	db *DB
}

const recordColumns = `id, user_id, exercise_id, weight, reps, one_rep_max, achieved_at, log_id, created_at, updated_at`

func scanRecord(row pgx.Row) (*models.PersonalRecord, error) {
	var pr models.PersonalRecord
	err := row.Scan(&pr.ID, &pr.UserID, &pr.ExerciseID, &pr.Weight, &pr.Reps, &pr.OneRepMax,
		&pr.AchievedAt, &pr.LogID, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (st *RecordStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PersonalRecord, error) {
	pr, err := scanRecord(st.db.Pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM personal_records WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying personal record %s: %w", id, mapErr(err))
	}
	return pr, nil
}

// FindByUserIDAndExerciseID returns nil when the user has no record yet.
func (st *RecordStore) FindByUserIDAndExerciseID(ctx context.Context, userID int, exerciseID uuid.UUID) (*models.PersonalRecord, error) {
	pr, err := scanRecord(st.db.Pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM personal_records WHERE user_id = $1 AND exercise_id = $2`,
		userID, exerciseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying personal record: %w", err)
	}
	return pr, nil
}

// FindByUserID lists the user's records, strongest first.
func (st *RecordStore) FindByUserID(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	rows, err := st.db.Pool.Query(ctx,
		`SELECT `+recordColumns+` FROM personal_records WHERE user_id = $1 ORDER BY one_rep_max DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var out []models.PersonalRecord
	for rows.Next() {
		pr, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

// Upsert writes the record, replacing any existing one for the same
// user and exercise. The original ID and created_at survive a replace.
func (st *RecordStore) Upsert(ctx context.Context, pr *models.PersonalRecord) error {
	_, err := st.db.Pool.Exec(ctx,
		`INSERT INTO personal_records (`+recordColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (user_id, exercise_id) DO UPDATE SET
		   weight = EXCLUDED.weight,
		   reps = EXCLUDED.reps,
		   one_rep_max = EXCLUDED.one_rep_max,
		   achieved_at = EXCLUDED.achieved_at,
		   log_id = EXCLUDED.log_id,
		   updated_at = EXCLUDED.updated_at`,
		pr.ID, pr.UserID, pr.ExerciseID, pr.Weight, pr.Reps, pr.OneRepMax,
		pr.AchievedAt, pr.LogID, pr.CreatedAt, pr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting personal record: %w", mapErr(err))
	}
	return nil
}

func (st *RecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := st.db.Pool.Exec(ctx, `DELETE FROM personal_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting personal record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

func (st *RecordStore) IsOwnedByUser(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	var owned bool
	err := st.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM personal_records WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking record owner: %w", err)
	}
	return owned, nil
}
