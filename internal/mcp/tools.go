package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// timeRange parses optional start/end arguments. ok is false when both are
// empty; a missing end defaults to now.
func timeRange(startStr, endStr string) (start, end time.Time, ok bool, err error) {
	if startStr == "" && endStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	end = time.Now()
	if endStr != "" {
		if end, err = parseFlexTime(endStr); err != nil {
			return time.Time{}, time.Time{}, false, err
		}
	}
	start = end.AddDate(0, 0, -30)
	if startStr != "" {
		if start, err = parseFlexTime(startStr); err != nil {
			return time.Time{}, time.Time{}, false, err
		}
	}
	return start, end, true, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Return the workout session in progress: split day, planned exercises, current exercise/set, phase, timers, pause state and completed sets. Returns null when no workout is running."),
)

var toolGetWorkoutLogs = mcp.NewTool("get_workout_logs",
	mcp.WithDescription("List completed workouts, newest first. Without dates returns the most recent logs (summary only); with dates returns every log completed in the range."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days before end when end is given.")),
	mcp.WithString("end", mcp.Description("End date (exclusive). Defaults to now.")),
	mcp.WithNumber("limit", mcp.Description("Maximum logs to return when no dates are given. Defaults to 20, capped at 200.")),
)

var toolGetWorkoutLog = mcp.NewTool("get_workout_log",
	mcp.WithDescription("Return one completed workout with every exercise and set (weight in kg, reps, notes)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout log ID")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("List personal records per exercise, ordered by estimated one-rep max (Epley: weight × (1 + reps/30))."),
)

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Summary statistics: total workouts, current daily streak, total and average duration in minutes, last workout date."),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Every logged set of one exercise, newest first. Use it to chart progression."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID (from a workout log or personal record)")),
	mcp.WithNumber("limit", mcp.Description("Maximum sets to return. Defaults to 50, capped at 200.")),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	detail, err := h.ds.GetActive(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if detail == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(detail)
}

func (h *handlers) getWorkoutLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	start, end, ranged, err := timeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	if ranged {
		logs, err := h.ds.LogsBetween(ctx, uid, start, end)
		if err != nil {
			h.log.Error("mcp get_workout_logs", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		return jsonResult(logs)
	}

	logs, err := h.ds.Logs(ctx, uid, req.GetInt("limit", 0))
	if err != nil {
		h.log.Error("mcp get_workout_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(logs)
}

func (h *handlers) getWorkoutLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("id must be a valid workout log ID"), nil
	}

	log, err := h.ds.Log(ctx, id, uid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(log)
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	records, err := h.ds.PersonalRecords(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getWorkoutStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	stats, err := h.ds.Stats(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("unauthenticated"), nil
	}
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("exercise_id must be a valid exercise ID"), nil
	}

	history, err := h.ds.ExerciseHistory(ctx, uid, id, req.GetInt("limit", 0))
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(history)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
