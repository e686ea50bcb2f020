package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"squadxp/internal/application/orchestrators"
	"squadxp/internal/application/projections"
	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/session"
	"squadxp/internal/domain/snapshot"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// badInput lists the errors a caller can fix by changing the request.
var badInput = []error{
	category.ErrUnknown,
	clock.ErrBadDate,
	session.ErrEmptyGroup,
	athlete.ErrEmptyID,
	athlete.ErrEmptyName,
	athlete.ErrEmptyGroup,
	snapshot.ErrEmptyGroup,
	snapshot.ErrEmptyName,
	snapshot.ErrZeroTarget,
	snapshot.ErrInvalidDateSpan,
	projections.ErrInvalidRange,
}

// writeError maps err to a status code. Validation failures are 400, missing
// rows 404, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	for _, target := range badInput {
		if errors.Is(err, target) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, athlete.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	internalError(w, err)
}

// parseCategory reads an optional category, defaulting to attendance.
func parseCategory(s string) (category.Category, error) {
	if s == "" {
		return category.Attendance, nil
	}
	return category.Parse(s)
}

// queryLimit parses ?limit=, returning 0 (use the default) when absent or invalid.
func queryLimit(r *http.Request) int {
	l, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || l < 0 {
		return 0
	}
	return l
}

// snapshotDeps derives the sampler dependencies from the engine's.
func snapshotDeps() orchestrators.SampleSnapshotsDeps {
	return orchestrators.SampleSnapshotsDeps{
		Roster:    app.Engine.Roster,
		Snapshots: app.SnapshotStore,
		Clock:     app.Engine.Clock,
	}
}
