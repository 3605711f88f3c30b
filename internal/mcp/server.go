package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok && id > 0
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("SplitLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("SplitLog strength training server. Read the active workout session, completed workout logs, personal records and per-exercise history. All data is scoped to the authenticated user. Weights are in kilograms."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetWorkoutLogs, Handler: h.getWorkoutLogs},
		server.ServerTool{Tool: toolGetWorkoutLog, Handler: h.getWorkoutLog},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetWorkoutStats, Handler: h.getWorkoutStats},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
	)

	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resPersonalRecords, Handler: h.personalRecords},
	)

	return s
}

// HTTPHandler serves s over streamable HTTP. userID reads the caller's
// identity from the incoming request.
func HTTPHandler(s *server.MCPServer, userID func(*http.Request) (int, bool)) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id, ok := userID(r); ok {
				return WithUserID(ctx, id)
			}
			return ctx
		}),
	)
}

// ServeStdio serves s over stdin and stdout on behalf of a single user.
func ServeStdio(s *server.MCPServer, userID int) error {
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return WithUserID(ctx, userID)
	}))
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"splitlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The workout session in progress with its planned exercises and completed sets, or null"),
	mcp.WithMIMEType("application/json"),
)

var resPersonalRecords = mcp.NewResource(
	"splitlog://personal_records",
	"Personal Records",
	mcp.WithResourceDescription("Best estimated one-rep max per exercise"),
	mcp.WithMIMEType("application/json"),
)
