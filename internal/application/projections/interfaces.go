package projections

import (
	"context"

	auditstore "squadxp/internal/adapters/storage/audit"
	sessionstore "squadxp/internal/adapters/storage/session"
	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/session"
	"squadxp/internal/domain/snapshot"
)

// RosterReader interface for roster queries.
type RosterReader interface {
	GetGroup(ctx context.Context, group string) ([]athlete.Athlete, error)
}

// LiveReader interface for live session queries.
type LiveReader interface {
	GetLive(ctx context.Context, group string) (session.LiveState, error)
}

// AuditReader interface for activity feed queries.
type AuditReader interface {
	List(ctx context.Context, filter auditstore.Filter, limit int) ([]audit.Entry, error)
}

// RecordReader interface for session history queries.
type RecordReader interface {
	GetRecord(ctx context.Context, slotKey string) (session.Record, error)
	ListRecords(ctx context.Context, filter sessionstore.RecordFilter) ([]session.Record, error)
}

// SnapshotReader interface for team challenge queries.
type SnapshotReader interface {
	ListDaily(ctx context.Context, group, fromDate, toDate string) ([]snapshot.Daily, error)
	GetChallenge(ctx context.Context, id string) (snapshot.TeamChallenge, error)
	ListChallenges(ctx context.Context, group string) ([]snapshot.TeamChallenge, error)
}
