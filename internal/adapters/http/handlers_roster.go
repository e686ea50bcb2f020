package web

import (
	"net/http"

	"squadxp/internal/application/orchestrators"
	"squadxp/internal/application/projections"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/checkpoint"
)

// handleListGroups lists roster groups (GET /api/groups)
func handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := app.Engine.Roster.ListGroups(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// handleGroupDashboard returns the leaderboard of a group (GET /api/groups/{group})
// POST: Unknown groups return an empty athlete list
func handleGroupDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGroupDashboard(r.Context(), projections.GroupDashboardQuery{
		Group: r.PathValue("group"),
	}, projections.GroupDashboardDeps{
		Roster:   app.Engine.Roster,
		Live:     app.Engine.Live,
		Clock:    app.Engine.Clock,
		DailyCap: app.Engine.Rules.DailyCap,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSaveAthlete creates or edits an athlete (POST /api/athletes)
// PRE: Body carries name and group; id is optional
// POST: 201 on create, 200 on edit
func handleSaveAthlete(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.SaveAthleteInput
	if err := strictDecode(w, r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	status := http.StatusOK
	if input.ID == "" {
		status = http.StatusCreated
	}

	a, err := orchestrators.ExecuteSaveAthlete(r.Context(), input, app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, a)
}

// handleRemoveAthlete deletes an athlete (DELETE /api/athletes/{id})
func handleRemoveAthlete(w http.ResponseWriter, r *http.Request) {
	removed, err := orchestrators.ExecuteRemoveAthlete(r.Context(), r.PathValue("id"), app.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type catalogResponse struct {
	Checkpoints map[category.Category][]checkpoint.Definition `json:"checkpoints"`
	Quests      []checkpoint.Quest                            `json:"quests"`
}

// handleCatalog lists checkpoint and quest definitions (GET /api/catalog)
func handleCatalog(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{
		Checkpoints: make(map[category.Category][]checkpoint.Definition, len(category.All)),
		Quests:      app.Engine.Catalog.Quests(),
	}
	for _, c := range category.All {
		resp.Checkpoints[c] = app.Engine.Catalog.List(c)
	}
	writeJSON(w, http.StatusOK, resp)
}
