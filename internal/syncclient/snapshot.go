package syncclient

import (
	"encoding/json"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

// Snapshot is the client's view of the running timers. Nil timers are left
// out of the payload; PausedAt is sent only when Set, as null when cleared.
type Snapshot struct {
	SessionID              uuid.UUID
	ExerciseElapsedSeconds *int
	RestRemainingSeconds   *int
	PausedAt               models.OptionalTime
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	body := map[string]any{"sessionId": s.SessionID.String()}
	if s.ExerciseElapsedSeconds != nil {
		body["exerciseElapsedSeconds"] = *s.ExerciseElapsedSeconds
	}
	if s.RestRemainingSeconds != nil {
		body["restRemainingSeconds"] = *s.RestRemainingSeconds
	}
	if s.PausedAt.Set {
		if s.PausedAt.Time == nil {
			body["pausedAt"] = nil
		} else {
			body["pausedAt"] = s.PausedAt.Time.UTC().Format(time.RFC3339)
		}
	}
	return json.Marshal(body)
}
