package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"squadxp/internal/adapters/http/perf"
	"squadxp/internal/adapters/mirror"
	"squadxp/internal/adapters/storage"
	auditStore "squadxp/internal/adapters/storage/audit"
	rosterStore "squadxp/internal/adapters/storage/roster"
	sessionStore "squadxp/internal/adapters/storage/session"
	snapshotStore "squadxp/internal/adapters/storage/snapshot"
	"squadxp/internal/application/orchestrators"
	"squadxp/internal/config"
	"squadxp/internal/domain/checkpoint"
	"squadxp/internal/domain/clock"
)

// wiring is the wired application shared by every command.
type wiring struct {
	db        *sql.DB
	timedDB   *storage.TimedDB
	collector *perf.Collector
	queue     *mirror.Queue
	engine    orchestrators.EngineDeps
	snapshots orchestrators.SampleSnapshotsDeps
	records   sessionStore.RecordStore
	snapStore snapshotStore.Store
}

// openWiring opens storage, builds the stores and the mirror queue.
// POST: Caller must call close; the mirror queue is not yet running
func openWiring(cfg config.Config) (*wiring, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	sessions := sessionStore.NewSQLiteStore(timedDB)
	snaps := snapshotStore.NewSQLiteStore(timedDB)
	roster := rosterStore.NewSQLiteStore(timedDB)
	clk := clock.NewSystem(loc)

	queue := mirror.NewQueue(newSink(cfg), cfg.Mirror.Buffer, float64(cfg.Mirror.RatePerSecond))

	rt := &wiring{
		db:        db,
		timedDB:   timedDB,
		collector: collector,
		queue:     queue,
		records:   sessions,
		snapStore: snaps,
		engine: orchestrators.EngineDeps{
			Roster:  roster,
			Live:    sessions,
			Records: sessions,
			Audit:   auditStore.NewSQLiteStore(timedDB),
			Catalog: checkpoint.Default(),
			Clock:   clk,
			Rules: orchestrators.Rules{
				DailyCap:          cfg.XP.DailyCap,
				PresenceBonus:     cfg.XP.PresenceBonus,
				ShoutoutBonus:     cfg.XP.ShoutoutBonus,
				AuditMaxEntries:   cfg.Audit.MaxEntries,
				InactivityTimeout: cfg.Session.InactivityTimeout,
			},
			Mirror: queue,
			Mu:     &sync.Mutex{},
		},
		snapshots: orchestrators.SampleSnapshotsDeps{
			Roster:    roster,
			Snapshots: snaps,
			Clock:     clk,
		},
	}
	slog.Info("storage_ready", "db", cfg.DB.Path, "schema", storage.LatestSchemaVersion(), "timezone", loc.String())
	return rt, nil
}

// newSink picks Redis when an address is configured.
func newSink(cfg config.Config) mirror.Sink {
	if cfg.Mirror.RedisAddr == "" {
		slog.Info("mirror_disabled", "reason", "mirror.redis_addr is empty")
		return mirror.NoopSink{}
	}
	client := mirror.NewRedisClient(mirror.RedisOptions{
		Addr:     cfg.Mirror.RedisAddr,
		Password: cfg.Mirror.RedisPassword,
		DB:       cfg.Mirror.RedisDB,
		Prefix:   cfg.Mirror.Prefix,
	})
	sink := mirror.NewRedisSink(client, cfg.Mirror.Prefix)
	if err := sink.Ping(context.Background()); err != nil {
		// Writes are dropped until Redis comes back.
		slog.Warn("mirror_unreachable", "addr", cfg.Mirror.RedisAddr, "error", err)
	}
	return sink
}

// csrfKey returns the configured key or a random per-process one.
func csrfKey(cfg config.Config) ([]byte, error) {
	if cfg.CSRF.Key != "" {
		return []byte(cfg.CSRF.Key), nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("csrf.key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set SQUADXP_CSRF_KEY so form tokens survive restarts")
	return key, nil
}

func (rt *wiring) close() {
	if err := rt.db.Close(); err != nil {
		slog.Warn("database_close_failed", "error", err)
	}
}
