package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/session"
)

// Kind identifies which remote document a message replaces.
type Kind string

const (
	KindRoster  Kind = "roster"
	KindGroup   Kind = "group"
	KindSession Kind = "session"
	KindAudit   Kind = "audit"
)

// Message is one whole-document write to the mirror. The remote side keeps
// the newest At per key (last writer wins).
type Message struct {
	Kind    Kind            `json:"kind"`
	Key     string          `json:"key"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage encodes v as the payload of a message for key.
func NewMessage(kind Kind, key string, v any, at time.Time) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Message{Kind: kind, Key: key, At: at.UTC(), Payload: payload}, nil
}

// Encode returns the wire form stored remotely.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// RosterMessage carries the full roster keyed by group.
func RosterMessage(roster map[string][]athlete.Athlete, at time.Time) (Message, error) {
	return NewMessage(KindRoster, "roster", roster, at)
}

// GroupMessage carries one group's athletes, the smaller delta a mirror can apply.
func GroupMessage(group string, athletes []athlete.Athlete, at time.Time) (Message, error) {
	return NewMessage(KindGroup, "group:"+group, athletes, at)
}

// SessionMessage carries an archived record keyed by its slot.
func SessionMessage(r session.Record, at time.Time) (Message, error) {
	return NewMessage(KindSession, "session:"+r.Slot.String(), r, at)
}

// AuditMessage carries the retained audit list, newest first.
func AuditMessage(entries []audit.Entry, at time.Time) (Message, error) {
	if entries == nil {
		entries = []audit.Entry{}
	}
	return NewMessage(KindAudit, "audit", entries, at)
}
