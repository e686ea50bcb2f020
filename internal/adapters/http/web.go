package web

import (
	"net/http"

	"squadxp/internal/adapters/http/middleware"
	"squadxp/internal/adapters/http/perf"
	"squadxp/internal/adapters/mirror"
	sessionStore "squadxp/internal/adapters/storage/session"
	snapshotStore "squadxp/internal/adapters/storage/snapshot"
	"squadxp/internal/application/orchestrators"
)

// App holds everything the handlers need.
type App struct {
	Engine        orchestrators.EngineDeps
	RecordStore   sessionStore.RecordStore
	SnapshotStore snapshotStore.Store
	Mirror        *mirror.Queue // optional: reported by /healthz
	DB            Pinger        // optional: checked by /healthz
}

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping() error
}

// Options tunes the middleware chain.
type Options struct {
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	SlowRequestMs  int
}

// Global app instance (set by NewMux)
var app *App

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the API.
func NewMux(a *App, collector *perf.Collector, opts Options) http.Handler {
	app = a
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)

	burst := opts.RateBurst
	if burst <= 0 {
		burst = int(opts.RatePerSecond) * 2
	}
	limiter := middleware.NewRateLimiter(opts.RatePerSecond, burst)

	// Outermost first. CSRF copies the request, so Timing resolves the
	// pattern against mux itself.
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.Timing(collector, opts.SlowRequestMs, mux),
		middleware.RateLimit(limiter),
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
	)
}

// handle registers h with the caller identity resolved.
func handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, middleware.Actor(h))
}

func registerRoutes(mux *http.ServeMux) {
	// Engine mutations
	handle(mux, "POST /api/checkpoints/toggle", handleToggleCheckpoint)
	handle(mux, "POST /api/presence", handlePresence)
	handle(mux, "POST /api/groups/{group}/checkin", handleBulkCheckIn)
	handle(mux, "POST /api/shoutouts", handleShoutout)
	handle(mux, "POST /api/quests/cycle", handleCycleQuest)
	handle(mux, "POST /api/groups/{group}/end", handleEndSession)
	handle(mux, "POST /api/groups/{group}/reset/{scope}", handleReset)
	handle(mux, "POST /api/undo", handleUndo)
	handle(mux, "POST /api/sweep", handleSweep)

	// Roster
	handle(mux, "GET /api/groups", handleListGroups)
	handle(mux, "GET /api/groups/{group}", handleGroupDashboard)
	handle(mux, "POST /api/athletes", handleSaveAthlete)
	handle(mux, "DELETE /api/athletes/{id}", handleRemoveAthlete)
	handle(mux, "GET /api/catalog", handleCatalog)

	// Reports
	handle(mux, "GET /api/feed", handleActivityFeed)
	handle(mux, "GET /api/sessions", handleSessionHistory)
	handle(mux, "GET /api/sessions/{date}/{group}/{tod}", handleSessionRecord)
	handle(mux, "POST /api/challenges", handleCreateChallenge)
	handle(mux, "GET /api/challenges/{id}", handleTeamChallenge)
	handle(mux, "GET /api/groups/{group}/challenges", handleGroupChallenges)

	// Ops
	handle(mux, "GET /api/perf", handlePerf)
	mux.HandleFunc("GET /healthz", handleHealth)
}
