package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/google/uuid"
)

var testSession = uuid.MustParse("7d0c7a56-2f6b-4bd5-9b38-3f2f6c1f0a11")

func intPtr(n int) *int { return &n }

func newTestClient(url string) *Client {
	c := NewClient(url+"/", "tok")
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

// TestSendSnapshotRetriesServerErrors verifies 5xx answers are retried and a
// later success is returned as nil.
func TestSendSnapshotRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/sync" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendSnapshot(context.Background(), Snapshot{SessionID: testSession})
	if err != nil {
		t.Fatalf("SendSnapshot: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// TestSendSnapshotGivesUp verifies the attempt limit.
func TestSendSnapshotGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendSnapshot(context.Background(), Snapshot{SessionID: testSession})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want wrapped 500 StatusError", err)
	}
	if calls.Load() != maxAttempts {
		t.Errorf("calls = %d, want %d", calls.Load(), maxAttempts)
	}
}

// TestSendSnapshotClientErrorNotRetried verifies 4xx answers return at once.
func TestSendSnapshotClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"validation failed"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendSnapshot(context.Background(), Snapshot{SessionID: testSession})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if !se.Rejected() {
		t.Errorf("Rejected() = false for %d", se.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// TestSnapshotPayload checks field names and the three pausedAt states.
func TestSnapshotPayload(t *testing.T) {
	paused := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		snap Snapshot
		want map[string]any
	}{
		{
			name: "timers only",
			snap: Snapshot{SessionID: testSession, ExerciseElapsedSeconds: intPtr(95), RestRemainingSeconds: intPtr(0)},
			want: map[string]any{"sessionId": testSession.String(), "exerciseElapsedSeconds": 95.0, "restRemainingSeconds": 0.0},
		},
		{
			name: "paused",
			snap: Snapshot{SessionID: testSession, PausedAt: models.SetTime(paused)},
			want: map[string]any{"sessionId": testSession.String(), "pausedAt": "2026-03-01T09:30:00Z"},
		},
		{
			name: "resumed",
			snap: Snapshot{SessionID: testSession, PausedAt: models.Null()},
			want: map[string]any{"sessionId": testSession.String(), "pausedAt": nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.snap)
			if err != nil {
				t.Fatal(err)
			}
			var got map[string]any
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("payload = %s, want %d keys", data, len(tt.want))
			}
			for k, v := range tt.want {
				if gv, ok := got[k]; !ok || gv != v {
					t.Errorf("%s = %v, want %v", k, gv, v)
				}
			}
		})
	}
}

// TestActive decodes the active session and the null answer.
func TestActive(t *testing.T) {
	var body atomic.Value
	body.Store(`null`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body.Load().(string))
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	detail, err := c.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if detail != nil {
		t.Errorf("detail = %+v, want nil", detail)
	}

	body.Store(`{"id":"` + testSession.String() + `","phase":"exercise","current_exercise_index":2}`)
	detail, err = c.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if detail == nil || detail.ID != testSession || detail.CurrentExerciseIndex != 2 {
		t.Errorf("detail = %+v", detail)
	}
}
