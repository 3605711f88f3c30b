package syncclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// recorder is a fake sync endpoint. status picks the answer per session.
type recorder struct {
	mu       sync.Mutex
	received []string
	status   func(sessionID string) int
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	code := http.StatusOK
	if rec.status != nil {
		code = rec.status(body.SessionID)
	}
	rec.mu.Lock()
	if code == http.StatusOK {
		rec.received = append(rec.received, body.SessionID)
	}
	rec.mu.Unlock()
	w.WriteHeader(code)
}

func (rec *recorder) got() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.received...)
}

func newTestSyncer(t *testing.T, rec *recorder) (*Syncer, *Outbox) {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	outbox, err := OpenOutbox(t.TempDir())
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	t.Cleanup(func() { outbox.Close() })

	s := New(newTestClient(srv.URL), outbox, slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, outbox
}

func queue(t *testing.T, o *Outbox, ids ...uuid.UUID) []string {
	t.Helper()
	var out []string
	for i, id := range ids {
		if _, err := o.Enqueue(context.Background(), Snapshot{SessionID: id, ExerciseElapsedSeconds: intPtr(i)}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		out = append(out, id.String())
	}
	return out
}

// TestFlushInOrder verifies snapshots are delivered oldest first and removed.
func TestFlushInOrder(t *testing.T) {
	rec := &recorder{}
	s, outbox := newTestSyncer(t, rec)
	ctx := context.Background()
	want := queue(t, outbox, uuid.New(), uuid.New(), uuid.New())

	stats, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.Sent != 3 || stats.Dropped != 0 {
		t.Errorf("stats = %+v, want 3 sent", stats)
	}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("delivery order (-want +got):\n%s", diff)
	}
	if n, _ := outbox.Len(ctx); n != 0 {
		t.Errorf("outbox len = %d, want 0", n)
	}
	last, err := outbox.State(ctx, StateLastFlush)
	if err != nil || last != "2026-03-01T12:00:00Z" {
		t.Errorf("last flush = %q (%v)", last, err)
	}
}

// TestFlushDropsRejected verifies 400 and 404 answers discard the snapshot
// and delivery continues.
func TestFlushDropsRejected(t *testing.T) {
	gone, bad, ok := uuid.New(), uuid.New(), uuid.New()
	rec := &recorder{status: func(id string) int {
		switch id {
		case gone.String():
			return http.StatusNotFound
		case bad.String():
			return http.StatusBadRequest
		}
		return http.StatusOK
	}}
	s, outbox := newTestSyncer(t, rec)
	queue(t, outbox, gone, bad, ok)

	stats, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.Sent != 1 || stats.Dropped != 2 {
		t.Errorf("stats = %+v, want 1 sent 2 dropped", stats)
	}
	if diff := cmp.Diff([]string{ok.String()}, rec.got()); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
}

// TestFlushStopsOnTransientFailure verifies that a failing snapshot blocks
// the ones behind it and stays queued for the next flush.
func TestFlushStopsOnTransientFailure(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	var down sync.Mutex
	failing := true
	rec := &recorder{status: func(string) int {
		down.Lock()
		defer down.Unlock()
		if failing {
			return http.StatusBadGateway
		}
		return http.StatusOK
	}}
	s, outbox := newTestSyncer(t, rec)
	ctx := context.Background()
	want := queue(t, outbox, first, second)

	stats, err := s.Flush(ctx)
	if err == nil {
		t.Fatal("Flush succeeded against a failing server")
	}
	if stats.Sent != 0 || stats.Remaining != 2 {
		t.Errorf("stats = %+v, want 0 sent 2 remaining", stats)
	}
	entries, err := outbox.Pending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Attempts != 1 || entries[1].Attempts != 0 {
		t.Errorf("entries = %+v, want first with 1 attempt", entries)
	}
	if last, _ := outbox.State(ctx, StateLastFlush); last != "" {
		t.Errorf("last flush = %q, want unset", last)
	}

	down.Lock()
	failing = false
	down.Unlock()

	if _, err := s.Flush(ctx); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("delivery order (-want +got):\n%s", diff)
	}
}

// TestPush queues and sends in one call.
func TestPush(t *testing.T) {
	rec := &recorder{}
	s, outbox := newTestSyncer(t, rec)
	id := uuid.New()

	stats, err := s.Push(context.Background(), Snapshot{SessionID: id, RestRemainingSeconds: intPtr(30)})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if stats.Sent != 1 {
		t.Errorf("sent = %d, want 1", stats.Sent)
	}
	if n, _ := outbox.Len(context.Background()); n != 0 {
		t.Errorf("outbox len = %d, want 0", n)
	}
}

// TestOutboxPersists verifies queued snapshots survive reopening.
func TestOutboxPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	o, err := OpenOutbox(dir)
	if err != nil {
		t.Fatal(err)
	}
	queue(t, o, testSession)
	o.Close()

	o, err = OpenOutbox(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()
	entries, err := o.Pending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].SessionID != testSession.String() {
		t.Fatalf("entries = %+v", entries)
	}
	var payload map[string]any
	if err := json.Unmarshal(entries[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["sessionId"] != testSession.String() {
		t.Errorf("payload = %s", entries[0].Payload)
	}
}
