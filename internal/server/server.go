package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/splitlog/internal/auth"
	"github.com/claude/splitlog/internal/ingest/alpha"
	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/storage"
	"github.com/claude/splitlog/internal/workout"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies; CSV imports get maxImportBytes.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

// Database is the part of the storage layer the HTTP API uses directly.
// Workout state goes through *workout.Service instead.
type Database interface {
	Ping(ctx context.Context) error
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	CreateSplit(ctx context.Context, ownerID int, in storage.SplitInput) ([]models.DayPlan, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	GetVolumeSummary(ctx context.Context, userID int, start, end time.Time, bucket string) (*storage.VolumeSummary, error)
}

var _ Database = (*storage.DB)(nil)

// WhoIsFunc resolves the tailnet identity behind a remote address.
type WhoIsFunc func(ctx context.Context, remoteAddr string) (login, displayName string, err error)

// Options configures authentication.
type Options struct {
	// Tokens validates bearer tokens. Nil disables bearer auth.
	Tokens *auth.Tokens
	// DevMode maps unauthenticated requests to the "local" user.
	DevMode bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Database
	svc    *workout.Service
	alpha  *alpha.Provider
	tokens *auth.Tokens
	dev    bool
	whois  WhoIsFunc
	mcp    http.Handler
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Database, svc *workout.Service, alphaProvider *alpha.Provider, opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		svc:    svc,
		alpha:  alphaProvider,
		tokens: opts.Tokens,
		dev:    opts.DevMode,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables tailnet identity lookups for requests without a
// bearer token.
func (s *Server) SetTailscale(whois WhoIsFunc) {
	s.whois = whois
}

// SetMCP mounts an MCP handler at /mcp behind authentication.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Authenticate)

		r.Get("/me", s.handleMe)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/active", s.handleActiveSession)
			r.Post("/sync", s.handleSync)
			r.Patch("/{id}", s.handleUpdateSession)
			r.Delete("/{id}", s.handleAbandonSession)
			r.Post("/{id}/sets", s.handleRecordSet)
			r.Post("/{id}/pause", s.handlePauseSession)
			r.Post("/{id}/resume", s.handleResumeSession)
			r.Post("/{id}/complete", s.handleCompleteSession)
		})

		r.Get("/logs", s.handleListLogs)
		r.Get("/logs/{id}", s.handleGetLog)
		r.Patch("/logs/{id}", s.handleUpdateLog)
		r.Delete("/logs/{id}", s.handleDeleteLog)

		r.Get("/stats", s.handleStats)
		r.Get("/stats/volume", s.handleVolume)
		r.Get("/records", s.handleRecords)
		r.Delete("/records/{id}", s.handleDeleteRecord)
		r.Get("/exercises/{id}/history", s.handleExerciseHistory)

		r.Post("/splits", s.handleCreateSplit)
		r.Get("/splits/{id}/completed", s.handleSplitCompleted)

		r.Post("/import/alpha", s.handleAlphaImport)
		r.Get("/imports", s.handleImportLogs)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.Authenticate)
		r.Handle("/mcp", http.HandlerFunc(s.serveMCP))
		r.Handle("/mcp/*", http.HandlerFunc(s.serveMCP))
	})
}

func (s *Server) serveMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "mcp not enabled"})
		return
	}
	s.mcp.ServeHTTP(w, r)
}
