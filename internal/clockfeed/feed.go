// Package clockfeed records clock signals in Redis so other processes can
// follow a game: each signal is appended to a capped per-game list and
// published on a shared channel.
package clockfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Channel carries every recorded event as JSON.
	Channel = "clock:events"

	defaultTTL    = 24 * time.Hour
	defaultMaxLen = 200
)

var ErrNoClient = errors.New("clock feed requires a redis client")

// Event is one signal as stored in clock:feed:<game>.
type Event struct {
	Game string    `json:"game"`
	Kind string    `json:"kind"`
	Side string    `json:"side"`
	At   time.Time `json:"at"`
}

type Feed struct {
	rdb    *redis.Client
	ttl    time.Duration
	maxLen int64
	now    func() time.Time
}

type Option func(*Feed)

func WithTTL(ttl time.Duration) Option {
	return func(f *Feed) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

func WithMaxLen(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.maxLen = int64(n)
		}
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

func New(rdb *redis.Client, opts ...Option) (*Feed, error) {
	if rdb == nil {
		return nil, ErrNoClient
	}
	f := &Feed{rdb: rdb, ttl: defaultTTL, maxLen: defaultMaxLen, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func keyFeed(game string) string { return "clock:feed:" + strings.TrimSpace(game) }

// Record appends the event, trims the list to the newest maxLen entries,
// refreshes its TTL and publishes it, all in one transaction.
func (f *Feed) Record(ctx context.Context, game, kind, side string) (*Event, error) {
	if f == nil || f.rdb == nil {
		return nil, ErrNoClient
	}
	if strings.TrimSpace(game) == "" || strings.TrimSpace(kind) == "" {
		return nil, fmt.Errorf("clock feed: game and kind required")
	}
	ev := &Event{Game: game, Kind: kind, Side: side, At: f.now().UTC()}
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	key := keyFeed(game)
	pipe := f.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -f.maxLen, -1)
	pipe.Expire(ctx, key, f.ttl)
	pipe.Publish(ctx, Channel, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("clock feed record: %w", err)
	}
	return ev, nil
}

// Recent returns up to n of the newest events for game, oldest first.
// Entries that fail to decode are skipped.
func (f *Feed) Recent(ctx context.Context, game string, n int) ([]Event, error) {
	if f == nil || f.rdb == nil {
		return nil, ErrNoClient
	}
	if n <= 0 {
		n = 20
	}
	raws, err := f.rdb.LRange(ctx, keyFeed(game), int64(-n), -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Clear drops the feed for game.
func (f *Feed) Clear(ctx context.Context, game string) error {
	if f == nil || f.rdb == nil {
		return ErrNoClient
	}
	return f.rdb.Del(ctx, keyFeed(game)).Err()
}
