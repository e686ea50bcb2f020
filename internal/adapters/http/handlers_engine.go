package web

import (
	"context"
	"net/http"
	"strings"

	"squadxp/internal/adapters/http/middleware"
	"squadxp/internal/application/orchestrators"
)

type toggleRequest struct {
	AthleteID    string `json:"athleteId"`
	CheckpointID string `json:"checkpointId"`
	Category     string `json:"category"`
}

// handleToggleCheckpoint flips one checkpoint (POST /api/checkpoints/toggle)
// PRE: Body names an athlete and a checkpoint
// POST: Returns the athlete result; unknown ids return applied=false with 200
func handleToggleCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	cat, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.AthleteID == "" || req.CheckpointID == "" {
		http.Error(w, "athleteId and checkpointId are required", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteToggleCheckpoint(r.Context(), orchestrators.ToggleCheckpointInput{
		AthleteID:    req.AthleteID,
		CheckpointID: req.CheckpointID,
		Category:     cat,
		Actor:        middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type presenceRequest struct {
	AthleteID string `json:"athleteId"`
	Category  string `json:"category"`
	Present   bool   `json:"present"`
}

// handlePresence marks an athlete present or absent (POST /api/presence)
func handlePresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	cat, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.AthleteID == "" {
		http.Error(w, "athleteId is required", http.StatusBadRequest)
		return
	}

	input := orchestrators.PresenceInput{
		AthleteID: req.AthleteID,
		Category:  cat,
		Actor:     middleware.ActorFromContext(r.Context()),
	}
	execute := orchestrators.ExecuteSetAbsent
	if req.Present {
		execute = orchestrators.ExecuteSetPresent
	}
	result, err := execute(r.Context(), input, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type categoryRequest struct {
	Category string `json:"category"`
}

// handleBulkCheckIn marks a whole group present (POST /api/groups/{group}/checkin)
func handleBulkCheckIn(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if r.ContentLength != 0 {
		if err := strictDecode(w, r, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	cat, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := orchestrators.ExecuteBulkCheckIn(r.Context(), orchestrators.BulkCheckInInput{
		Group:    r.PathValue("group"),
		Category: cat,
		Actor:    middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type shoutoutRequest struct {
	AthleteID string `json:"athleteId"`
	Category  string `json:"category"`
}

// handleShoutout grants the shoutout bonus (POST /api/shoutouts)
func handleShoutout(w http.ResponseWriter, r *http.Request) {
	var req shoutoutRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	cat, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.AthleteID == "" {
		http.Error(w, "athleteId is required", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteAwardShoutout(r.Context(), orchestrators.ShoutoutInput{
		AthleteID: req.AthleteID,
		Category:  cat,
		Actor:     middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type questRequest struct {
	AthleteID string `json:"athleteId"`
	QuestID   string `json:"questId"`
}

// handleCycleQuest advances a quest one step (POST /api/quests/cycle)
func handleCycleQuest(w http.ResponseWriter, r *http.Request) {
	var req questRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.AthleteID == "" || req.QuestID == "" {
		http.Error(w, "athleteId and questId are required", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCycleQuest(r.Context(), orchestrators.CycleQuestInput{
		AthleteID: req.AthleteID,
		QuestID:   req.QuestID,
		Actor:     middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleEndSession archives a group's practice now (POST /api/groups/{group}/end)
// POST: archived=false when the group was idle
func handleEndSession(w http.ResponseWriter, r *http.Request) {
	result, err := orchestrators.ExecuteEndSession(r.Context(), orchestrators.EndSessionInput{
		Group: r.PathValue("group"),
		Actor: middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleReset clears periodic state (POST /api/groups/{group}/reset/{scope})
// PRE: scope is day, week or month
func handleReset(w http.ResponseWriter, r *http.Request) {
	var execute func(context.Context, orchestrators.ResetInput, orchestrators.EngineDeps) (orchestrators.ResetResult, error)
	switch orchestrators.ResetScope(strings.ToLower(r.PathValue("scope"))) {
	case orchestrators.ResetDay:
		execute = orchestrators.ExecuteResetDay
	case orchestrators.ResetWeek:
		execute = orchestrators.ExecuteResetWeek
	case orchestrators.ResetMonth:
		execute = orchestrators.ExecuteResetMonth
	default:
		http.Error(w, "scope must be one of: day, week, month", http.StatusBadRequest)
		return
	}

	result, err := execute(r.Context(), orchestrators.ResetInput{
		Group: r.PathValue("group"),
		Actor: middleware.ActorFromContext(r.Context()),
	}, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUndo reverses the newest audit entry (POST /api/undo)
// POST: removed=false when the log was empty
func handleUndo(w http.ResponseWriter, r *http.Request) {
	result, err := orchestrators.ExecuteUndoLastAction(r.Context(), app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSweep archives every stale practice (POST /api/sweep).
// Clients call it when the app resumes so a missed sweep tick is recovered.
func handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := orchestrators.ExecuteSweep(r.Context(), app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
