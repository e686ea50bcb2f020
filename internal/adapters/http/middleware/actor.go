package middleware

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const actorContextKey contextKey = "actor"

// ActorHeader carries the caller identity recorded in the audit log.
const ActorHeader = "X-Coach"

// DefaultActor is used when a request names no caller.
const DefaultActor = "coach"

const maxActorLength = 64

// Actor returns middleware that reads the caller identity from ActorHeader
// and stores it in the request context. Identity is taken on trust.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" || !utf8.ValidString(actor) {
			actor = DefaultActor
		}
		if len(actor) > maxActorLength {
			actor = actor[:maxActorLength]
			for !utf8.ValidString(actor) {
				actor = actor[:len(actor)-1]
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// ActorFromContext returns the caller identity, DefaultActor when unset.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}

// ContextWithActor returns a context carrying actor.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
