package projections

import (
	"context"
	"errors"

	sessionstore "squadxp/internal/adapters/storage/session"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/session"
)

// ErrInvalidRange is returned when ToDate is before FromDate.
var ErrInvalidRange = errors.New("to date cannot be before from date")

// SessionHistoryQuery carries query parameters.
type SessionHistoryQuery struct {
	Group    string
	FromDate string
	ToDate   string
	Limit    int
}

// SessionHistoryDeps holds dependencies for QuerySessionHistory.
type SessionHistoryDeps struct {
	Records RecordReader
}

// SessionSummary totals attendance across the returned records.
type SessionSummary struct {
	Sessions   int `json:"sessions"`
	PoolVisits int `json:"poolVisits"`
	GymVisits  int `json:"gymVisits"`
	MeetVisits int `json:"meetVisits"`
	XPEarned   int `json:"xpEarned"`
}

// SessionHistoryResult carries the query result.
type SessionHistoryResult struct {
	Records []session.Record `json:"records"`
	Summary SessionSummary   `json:"summary"`
}

// QuerySessionHistory lists archived practices newest first.
// PRE: FromDate and ToDate are empty or YYYY-MM-DD
// POST: Records is never nil
func QuerySessionHistory(ctx context.Context, query SessionHistoryQuery, deps SessionHistoryDeps) (SessionHistoryResult, error) {
	for _, d := range []string{query.FromDate, query.ToDate} {
		if d == "" {
			continue
		}
		if _, err := clock.DaysBetween(d, d); err != nil {
			return SessionHistoryResult{}, err
		}
	}
	if query.FromDate != "" && query.ToDate != "" && query.ToDate < query.FromDate {
		return SessionHistoryResult{}, ErrInvalidRange
	}

	records, err := deps.Records.ListRecords(ctx, sessionstore.RecordFilter{
		Group:    query.Group,
		FromDate: query.FromDate,
		ToDate:   query.ToDate,
		Limit:    query.Limit,
	})
	if err != nil {
		return SessionHistoryResult{}, err
	}
	result := SessionHistoryResult{Records: records}
	if result.Records == nil {
		result.Records = []session.Record{}
	}
	for _, r := range records {
		result.Summary.Sessions++
		result.Summary.PoolVisits += r.Counts.Pool
		result.Summary.GymVisits += r.Counts.Weight
		result.Summary.MeetVisits += r.Counts.Meet
		for _, a := range r.Athletes {
			result.Summary.XPEarned += a.XPEarned
		}
	}
	return result, nil
}

// QuerySessionRecord returns one archived practice by slot.
func QuerySessionRecord(ctx context.Context, slot session.SlotKey, deps SessionHistoryDeps) (session.Record, error) {
	return deps.Records.GetRecord(ctx, slot.String())
}
