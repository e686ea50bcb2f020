package mirror

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces mirror keys in a shared Redis.
const DefaultPrefix = "squadxp"

// RedisOptions configures the Redis mirror.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisClient builds a client with short timeouts; the mirror must never
// hold up the caller for long.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisSink stores each message under prefix:key and announces the change
// on prefix:changes so other devices can refresh.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
}

// Ensure RedisSink implements Sink.
var _ Sink = (*RedisSink)(nil)

// NewRedisSink wraps client.
// PRE: client is non-nil
func NewRedisSink(client redis.UniversalClient, prefix string) *RedisSink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisSink{client: client, prefix: prefix}
}

// Key returns the Redis key a message is stored under.
func (s *RedisSink) Key(msg Message) string {
	return s.prefix + ":" + msg.Key
}

// Channel returns the pub/sub channel change notices go to.
func (s *RedisSink) Channel() string {
	return s.prefix + ":changes"
}

// Write replaces the stored document and publishes a change notice in one round trip.
// POST: Returns the first pipeline error
func (s *RedisSink) Write(ctx context.Context, msg Message) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.Key(msg), body, 0)
		p.Publish(ctx, s.Channel(), msg.Key+"@"+strconv.FormatInt(msg.At.UnixMilli(), 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis mirror %s: %w", s.Key(msg), err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NoopSink discards messages. Used when no mirror is configured.
type NoopSink struct{}

// Write implements Sink.
func (NoopSink) Write(context.Context, Message) error { return nil }
