package workout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// ParseSnapshot decodes and validates a sync request body. Timer values are
// absolute readings of the client's local clock, not deltas, so replaying a
// snapshot never double-counts elapsed time.
func ParseSnapshot(data []byte) (models.SyncSnapshot, error) {
	var snap models.SyncSnapshot

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return snap, &ValidationError{Fields: map[string]string{"body": "must be a JSON object"}}
	}

	verr := &ValidationError{}

	if v, ok := raw["sessionId"]; !ok {
		verr.add("sessionId", "is required")
	} else {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			verr.add("sessionId", "must be a string")
		} else if id, err := uuid.Parse(s); err != nil {
			verr.add("sessionId", "must be a valid session ID")
		} else {
			snap.SessionID = id
		}
	}

	if v, ok := raw["exerciseElapsedSeconds"]; ok {
		n, err := parseTimer(v)
		if err != nil {
			verr.add("exerciseElapsedSeconds", err.Error())
		} else {
			snap.ExerciseElapsedSeconds = &n
		}
	}

	if v, ok := raw["restRemainingSeconds"]; ok {
		n, err := parseTimer(v)
		if err != nil {
			verr.add("restRemainingSeconds", err.Error())
		} else {
			snap.RestRemainingSeconds = &n
		}
	}

	if v, ok := raw["pausedAt"]; ok {
		if isNull(v) {
			snap.PausedAt = models.Null()
		} else {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				verr.add("pausedAt", "must be an ISO-8601 timestamp or null")
			} else if t, err := time.Parse(time.RFC3339, s); err != nil {
				verr.add("pausedAt", "must be an ISO-8601 timestamp or null")
			} else {
				snap.PausedAt = models.SetTime(t.UTC())
			}
		}
	}

	return snap, verr.errOrNil()
}

func parseTimer(v json.RawMessage) (int, error) {
	errTimer := errors.New("must be a non-negative integer")
	if isNull(v) {
		return 0, errTimer
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, errTimer
	}
	// Timer columns are 32-bit INTEGERs.
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errTimer
	}
	return int(f), nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Sync merges a client snapshot into the stored session. Each field is
// merged on its own and omitted fields are left untouched; concurrent syncs
// for the same session resolve last-write-wins per field.
func (s *Service) Sync(ctx context.Context, userID int, snap models.SyncSnapshot) (*models.WorkoutSession, error) {
	session, err := s.ownedSession(ctx, snap.SessionID, userID)
	if err != nil {
		return nil, err
	}

	patch := models.SessionPatch{
		ExerciseElapsedSeconds: snap.ExerciseElapsedSeconds,
		PausedAt:               snap.PausedAt,
	}
	if snap.RestRemainingSeconds != nil {
		patch.RestRemainingSeconds = models.SetInt(*snap.RestRemainingSeconds)
	}
	if patch.PausedAt.Time != nil {
		clamped := clampPause(*patch.PausedAt.Time, session.StartedAt, s.now())
		patch.PausedAt = models.SetTime(clamped)
	}

	updated, err := s.sessions.Update(ctx, snap.SessionID, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotOwned
		}
		return nil, fmt.Errorf("syncing session: %w", err)
	}
	return updated, nil
}

// clampPause keeps a client pause timestamp inside [startedAt, now] so a
// skewed device clock cannot break the pausedAt ordering invariant.
func clampPause(pausedAt, startedAt, now time.Time) time.Time {
	if pausedAt.Before(startedAt) {
		return startedAt
	}
	if pausedAt.After(now) {
		return now
	}
	return pausedAt
}
