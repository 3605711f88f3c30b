package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	flushBatch = 100

	// StateLastFlush holds the RFC 3339 time of the last flush that
	// emptied the outbox.
	StateLastFlush = "last_flush"
)

// Stats summarizes one Flush.
type Stats struct {
	Sent      int
	Dropped   int
	Remaining int
}

// Syncer drains an Outbox through a Client.
type Syncer struct {
	client *Client
	outbox *Outbox
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Syncer.
func New(client *Client, outbox *Outbox, log *slog.Logger) *Syncer {
	return &Syncer{client: client, outbox: outbox, log: log, now: time.Now}
}

// Push queues snap and flushes the outbox. A snapshot that cannot be sent
// yet stays queued; the returned error reports why.
func (s *Syncer) Push(ctx context.Context, snap Snapshot) (*Stats, error) {
	if _, err := s.outbox.Enqueue(ctx, snap); err != nil {
		return &Stats{}, err
	}
	return s.Flush(ctx)
}

// Flush sends queued snapshots in the order they were queued. Snapshots the
// server rejects (400, 404) are dropped. Flushing stops at the first other
// failure so later snapshots never overtake earlier ones.
func (s *Syncer) Flush(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	for {
		entries, err := s.outbox.Pending(ctx, flushBatch)
		if err != nil {
			return stats, err
		}
		if len(entries) == 0 {
			break
		}

		for _, e := range entries {
			err := s.client.sendRaw(ctx, e.Payload)
			var se *StatusError
			switch {
			case err == nil:
				stats.Sent++
			case errors.As(err, &se) && se.Rejected():
				stats.Dropped++
				s.log.Warn("dropping rejected snapshot",
					"id", e.ID, "session_id", e.SessionID, "status", se.Code, "body", se.Body)
			default:
				if merr := s.outbox.MarkAttempt(ctx, e.ID); merr != nil {
					s.log.Error("recording attempt failed", "id", e.ID, "error", merr)
				}
				stats.Remaining, _ = s.outbox.Len(ctx)
				return stats, fmt.Errorf("sending snapshot %d: %w", e.ID, err)
			}
			if err := s.outbox.Remove(ctx, e.ID); err != nil {
				return stats, fmt.Errorf("removing snapshot %d: %w", e.ID, err)
			}
		}
	}

	if err := s.outbox.SetState(ctx, StateLastFlush, s.now().UTC().Format(time.RFC3339)); err != nil {
		return stats, fmt.Errorf("saving sync state: %w", err)
	}
	if stats.Sent > 0 || stats.Dropped > 0 {
		s.log.Info("outbox flushed", "sent", stats.Sent, "dropped", stats.Dropped)
	}
	return stats, nil
}

// Run flushes every interval until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Flush(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("flush incomplete, will retry", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
