package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/splitlog/internal/workout"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
	requestUserKey
)

// UserInfo describes the authenticated caller.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

const (
	devLogin       = "local"
	devDisplayName = "Local Dev User"
)

// UserID returns the authenticated user ID stored by Authenticate.
func UserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok && id > 0
}

func userInfoFromContext(r *http.Request) UserInfo {
	info, _ := r.Context().Value(userInfoKey).(UserInfo)
	return info
}

// mustUserID writes a 401 and returns false when the request has no identity.
func mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	return id, ok
}

// requestUser is set by RequestLogging before routing and filled in by
// withIdentity, so the log line carries the user resolved in a subrouter.
type requestUser struct {
	id int
}

func withIdentity(r *http.Request, userID int, info UserInfo) *http.Request {
	if ru, ok := r.Context().Value(requestUserKey).(*requestUser); ok {
		ru.id = userID
	}
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// Authenticate resolves the caller in order: bearer token, tailnet identity,
// dev identity. Requests matching none of them get 401.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || s.tokens == nil {
				s.writeError(w, r, workout.ErrUnauthorized)
				return
			}
			uid, err := s.tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, withIdentity(r, uid, UserInfo{}))
			return
		}

		var login, display string
		switch {
		case s.whois != nil:
			var err error
			login, display, err = s.whois(r.Context(), r.RemoteAddr)
			if err != nil || login == "" {
				s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				s.writeError(w, r, workout.ErrUnauthorized)
				return
			}
		case s.dev:
			login, display = devLogin, devDisplayName
		default:
			s.writeError(w, r, workout.ErrUnauthorized)
			return
		}

		uid, err := s.db.GetOrCreateUser(r.Context(), login, display)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, withIdentity(r, uid, UserInfo{Login: login, DisplayName: display}))
	})
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			ru := &requestUser{}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), requestUserKey, ru)))
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			}
			if ru.id > 0 {
				attrs = append(attrs, "user_id", ru.id)
			}
			log.Info("request", attrs...)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers (MCP) flush through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
