package syncclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is a queued snapshot payload.
type Entry struct {
	ID        int64
	SessionID string
	Payload   json.RawMessage
	Attempts  int
	QueuedAt  time.Time
}

// Outbox queues snapshots on disk until the server accepts them.
type Outbox struct {
	db *sql.DB
}

// OpenOutbox opens (or creates) the SQLite outbox at dir/outbox.db.
func OpenOutbox(dir string) (*Outbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "outbox.db"))
	if err != nil {
		return nil, fmt.Errorf("opening outbox db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		payload    BLOB NOT NULL,
		attempts   INTEGER NOT NULL DEFAULT 0,
		queued_at  INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sync_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating outbox tables: %w", err)
	}

	return &Outbox{db: db}, nil
}

// Enqueue appends a snapshot and returns its queue ID.
func (o *Outbox) Enqueue(ctx context.Context, snap Snapshot) (int64, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshaling snapshot: %w", err)
	}
	res, err := o.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, payload, queued_at) VALUES (?, ?, ?)`,
		snap.SessionID.String(), payload, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("queueing snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Pending returns up to limit queued snapshots, oldest first.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, session_id, payload, attempts, queued_at
		 FROM snapshots ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload []byte
		var queued int64
		if err := rows.Scan(&e.ID, &e.SessionID, &payload, &e.Attempts, &queued); err != nil {
			return nil, fmt.Errorf("scanning outbox row: %w", err)
		}
		e.Payload = payload
		e.QueuedAt = time.UnixMilli(queued).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Len returns the number of queued snapshots.
func (o *Outbox) Len(ctx context.Context) (int, error) {
	var n int
	err := o.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Remove deletes a snapshot from the queue.
func (o *Outbox) Remove(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	return err
}

// MarkAttempt records a failed delivery attempt.
func (o *Outbox) MarkAttempt(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE snapshots SET attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

// State returns a stored sync state value, or "" if unset.
func (o *Outbox) State(ctx context.Context, key string) (string, error) {
	var v string
	err := o.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetState stores a sync state value.
func (o *Outbox) SetState(ctx context.Context, key, value string) error {
	_, err := o.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Close closes the outbox database.
func (o *Outbox) Close() error {
	return o.db.Close()
}
