package mirror

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Default queue sizing.
const (
	DefaultBuffer        = 256
	DefaultRatePerSecond = 20
	DefaultWriteTimeout  = 3 * time.Second
)

// Sink writes one message to the remote store.
type Sink interface {
	Write(ctx context.Context, msg Message) error
}

// Publisher accepts messages without blocking the caller.
type Publisher interface {
	Publish(msg Message) bool
}

// Stats counts queue outcomes since start.
type Stats struct {
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Written   int64 `json:"written"`
	Failed    int64 `json:"failed"`
}

// Queue is a one-way outbound channel drained by a single goroutine.
// Publish never blocks; a full buffer drops the message. Sink failures are
// logged and never retried, since the next mutation re-sends current state.
type Queue struct {
	ch      chan Message
	sink    Sink
	limiter *rate.Limiter
	timeout time.Duration

	published atomic.Int64
	dropped   atomic.Int64
	written   atomic.Int64
	failed    atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Ensure Queue implements Publisher.
var _ Publisher = (*Queue)(nil)

// NewQueue creates a queue in front of sink.
// PRE: sink is non-nil; buffer <= 0 and perSecond <= 0 select the defaults
// POST: Returns a queue that accepts messages; call Run to drain it
func NewQueue(sink Sink, buffer int, perSecond float64) *Queue {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if perSecond <= 0 {
		perSecond = DefaultRatePerSecond
	}
	return &Queue{
		ch:      make(chan Message, buffer),
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(int(perSecond), 1)),
		timeout: DefaultWriteTimeout,
		done:    make(chan struct{}),
	}
}

// Publish enqueues msg.
// POST: Returns false and logs when the buffer is full or the queue is closed
func (q *Queue) Publish(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		slog.Warn("mirror_dropped", "kind", msg.Kind, "key", msg.Key, "reason", "closed")
		return false
	}
	select {
	case q.ch <- msg:
		q.published.Add(1)
		return true
	default:
		q.dropped.Add(1)
		slog.Warn("mirror_dropped", "kind", msg.Kind, "key", msg.Key, "reason", "full", "buffer", cap(q.ch))
		return false
	}
}

// Run drains the queue until ctx is cancelled or Close has been called and
// the buffer is empty.
// PRE: called once
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("mirror_queue_stopped", "pending", len(q.ch))
			return
		case msg, open := <-q.ch:
			if !open {
				slog.Info("mirror_queue_drained")
				return
			}
			if err := q.limiter.Wait(ctx); err != nil {
				return
			}
			q.write(ctx, msg)
		}
	}
}

func (q *Queue) write(ctx context.Context, msg Message) {
	wctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	start := time.Now()
	if err := q.sink.Write(wctx, msg); err != nil {
		q.failed.Add(1)
		slog.Warn("mirror_write_failed", "kind", msg.Kind, "key", msg.Key, "error", err)
		return
	}
	q.written.Add(1)
	slog.Debug("mirror_written", "kind", msg.Kind, "key", msg.Key, "duration_ms", time.Since(start).Milliseconds())
}

// Close stops accepting messages and waits for Run to finish draining.
// PRE: Run has been started
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}

// Stats returns a point-in-time copy of the counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Published: q.published.Load(),
		Dropped:   q.dropped.Load(),
		Written:   q.written.Load(),
		Failed:    q.failed.Load(),
	}
}
