package projections

import (
	"context"

	auditstore "squadxp/internal/adapters/storage/audit"
	"squadxp/internal/domain/audit"
)

// Feed page bounds.
const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = audit.DefaultMaxEntries
)

// ActivityFeedQuery carries query parameters.
type ActivityFeedQuery struct {
	Group     string
	AthleteID string
	Kind      audit.Kind
	Limit     int
}

// ActivityFeedDeps holds dependencies for QueryActivityFeed.
type ActivityFeedDeps struct {
	Audit AuditReader
}

// ActivityFeedResult carries the query result.
type ActivityFeedResult struct {
	Entries []audit.Entry `json:"entries"`
	NetXP   int           `json:"netXp"` // sum of deltas on this page
}

// QueryActivityFeed lists audit entries newest first.
// PRE: none
// POST: At most MaxFeedLimit entries; Entries is never nil
func QueryActivityFeed(ctx context.Context, query ActivityFeedQuery, deps ActivityFeedDeps) (ActivityFeedResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	entries, err := deps.Audit.List(ctx, auditstore.Filter{
		Group:     query.Group,
		AthleteID: query.AthleteID,
		Kind:      query.Kind,
	}, limit)
	if err != nil {
		return ActivityFeedResult{}, err
	}
	result := ActivityFeedResult{Entries: entries}
	if result.Entries == nil {
		result.Entries = []audit.Entry{}
	}
	for _, e := range entries {
		result.NetXP += e.XPDelta
	}
	return result, nil
}
