package web

import (
	"log/slog"
	"net/http"
	"time"

	"squadxp/internal/application/orchestrators"
	"squadxp/internal/application/projections"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/session"
)

// handleActivityFeed lists audit entries (GET /api/feed)
// Query params: group, athlete, kind, limit
func handleActivityFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := projections.QueryActivityFeed(r.Context(), projections.ActivityFeedQuery{
		Group:     q.Get("group"),
		AthleteID: q.Get("athlete"),
		Kind:      audit.Kind(q.Get("kind")),
		Limit:     queryLimit(r),
	}, projections.ActivityFeedDeps{Audit: app.Engine.Audit})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSessionHistory lists archived practices (GET /api/sessions)
// Query params: group, from, to (YYYY-MM-DD), limit
func handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := projections.QuerySessionHistory(r.Context(), projections.SessionHistoryQuery{
		Group:    q.Get("group"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Limit:    queryLimit(r),
	}, projections.SessionHistoryDeps{Records: app.RecordStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSessionRecord returns one archived practice (GET /api/sessions/{date}/{group}/{tod})
func handleSessionRecord(w http.ResponseWriter, r *http.Request) {
	slot := session.SlotKey{
		Date:      r.PathValue("date"),
		Group:     r.PathValue("group"),
		TimeOfDay: session.TimeOfDay(r.PathValue("tod")),
	}
	if slot.TimeOfDay != session.AM && slot.TimeOfDay != session.PM {
		http.Error(w, "time of day must be AM or PM", http.StatusBadRequest)
		return
	}
	rec, err := projections.QuerySessionRecord(r.Context(), slot, projections.SessionHistoryDeps{Records: app.RecordStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleCreateChallenge stores a team challenge (POST /api/challenges)
func handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateChallengeInput
	if err := strictDecode(w, r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := orchestrators.ExecuteCreateChallenge(r.Context(), input, snapshotDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleTeamChallenge returns one challenge with progress (GET /api/challenges/{id})
func handleTeamChallenge(w http.ResponseWriter, r *http.Request) {
	p, err := projections.QueryTeamChallenge(r.Context(), r.PathValue("id"), projections.TeamChallengeDeps{Snapshots: app.SnapshotStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleGroupChallenges lists a group's challenges (GET /api/groups/{group}/challenges)
func handleGroupChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGroupChallenges(r.Context(), r.PathValue("group"), projections.TeamChallengeDeps{Snapshots: app.SnapshotStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": list})
}

// handlePerf returns request and query timings (GET /api/perf)
// Query params: window (Go duration, default 1h), limit (default 10)
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "window must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	top := queryLimit(r)
	if top == 0 {
		top = 10
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(time.Now().Add(-window), top))
}

type healthResponse struct {
	Status string `json:"status"`
	Mirror any    `json:"mirror,omitempty"`
}

// handleHealth reports liveness (GET /healthz)
func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if app.DB != nil {
		if err := app.DB.Ping(); err != nil {
			slog.Error("health_check_failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "storage unavailable"})
			return
		}
	}
	if app.Mirror != nil {
		resp.Mirror = app.Mirror.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
