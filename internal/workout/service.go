// Package workout implements the in-progress workout session lifecycle:
// starting a session, reconciling client timer snapshots, recording sets and
// completing the session into a durable log with personal-record updates.
package workout

import (
	"log/slog"
	"time"
)

// Stores groups the repositories the service depends on.
type Stores struct {
	Sessions SessionStore
	Logs     LogStore
	Records  RecordStore
	Plans    PlanStore
}

// Service owns the workout session state machine and the completion engine.
// It holds no state of its own; the persisted session row is the only shared
// resource between requests.
type Service struct {
	sessions SessionStore
	logs     LogStore
	records  RecordStore
	plans    PlanStore
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given stores.
func NewService(stores Stores, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		sessions: stores.Sessions,
		logs:     stores.Logs,
		records:  stores.Records,
		plans:    stores.Plans,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
