package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/splitlog/internal/ingest/alpha"
	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/storage"
	"github.com/claude/splitlog/internal/workout"
	"github.com/claude/splitlog/internal/workout/workouttest"
)

// fakeDB implements Database on top of the in-memory workout store.
type fakeDB struct {
	store *workouttest.Store

	mu      sync.Mutex
	users   map[string]int
	imports []storage.ImportLog
	pingErr error

	volumeArgs []any
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.users[login]; ok {
		return id, nil
	}
	id := len(f.users) + 1
	f.users[login] = id
	return id, nil
}

func (f *fakeDB) CreateSplit(_ context.Context, _ int, in storage.SplitInput) ([]models.DayPlan, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.Days) == 0 {
		return nil, fmt.Errorf("%w: a split needs a name and at least one day", workout.ErrInvalidInput)
	}
	var plans []models.DayPlan
	for _, d := range in.Days {
		names := make([]string, 0, len(d.Exercises))
		for _, e := range d.Exercises {
			names = append(names, e.Name)
		}
		plans = append(plans, f.store.AddPlan(d.Name, names...))
	}
	return plans, nil
}

func (f *fakeDB) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.ID = int64(len(f.imports) + 1)
	f.imports = append(f.imports, log)
	return log.ID, nil
}

func (f *fakeDB) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ImportLog
	for i := len(f.imports) - 1; i >= 0 && len(out) < limit; i-- {
		if f.imports[i].UserID == userID {
			out = append(out, f.imports[i])
		}
	}
	return out, nil
}

func (f *fakeDB) GetVolumeSummary(_ context.Context, userID int, start, end time.Time, bucket string) (*storage.VolumeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumeArgs = []any{userID, start, end, bucket}
	return &storage.VolumeSummary{
		Bucket:  bucket,
		Periods: []storage.VolumePeriod{{Period: "2026-01-05", Workouts: 2, Sets: 18, Reps: 150, TonnageKg: 9800}},
	}, nil
}

func newTestServer(t *testing.T, opts Options) (*Server, *workouttest.Store, *fakeDB) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	store := workouttest.New()
	db := &fakeDB{store: store, users: make(map[string]int)}
	svc := workout.NewService(store.Stores(), log)
	importer := alpha.NewProvider(svc, store.Stores().Plans, log)
	return New(db, svc, importer, opts, log), store, db
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
