package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-clock/internal/game"
	"github.com/park285/cheese-clock/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 24 * time.Hour

// ErrConflict is returned by Update when another writer changed the
// snapshot between read and write.
var ErrConflict = errors.New("snapshot changed concurrently")

// RedisStore keeps snapshots under clock:game:<id> with a TTL and tracks ids
// in the clock:index set.
type RedisStore struct {
	rdb   *redis.Client
	codec Codec
	ttl   time.Duration
	owned bool
}

type RedisOption func(*RedisStore)

func WithCodec(c Codec) RedisOption {
	return func(s *RedisStore) {
		if c != nil {
			s.codec = c
		}
	}
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis connects to redisURL (redis:// or rediss://) and pings it.
func NewRedis(ctx context.Context, redisURL string, opts ...RedisOption) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for snapshot store")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	s := NewRedisFromClient(rdb, opts...)
	s.owned = true
	return s, nil
}

// NewRedisFromClient wraps an existing client; Close leaves it open.
func NewRedisFromClient(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, codec: JSON, ttl: defaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying connection for components sharing it.
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil || !s.owned {
		return nil
	}
	return s.rdb.Close()
}

func gameKey(id string) string { return "clock:game:" + id }
func indexKey() string         { return "clock:index" }

func (s *RedisStore) Save(ctx context.Context, id string, snap game.Snapshot) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("snapshot store not initialized")
	}
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	raw, err := s.codec.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, gameKey(id), raw, s.ttl)
	pipe.SAdd(ctx, indexKey(), id)
	pipe.Expire(ctx, indexKey(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	obslog.L().Debug("clock_snapshot_saved", zap.String("game_id", id), zap.String("codec", s.codec.Name()), zap.Int("bytes", len(raw)))
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (game.Snapshot, error) {
	if s == nil || s.rdb == nil {
		return game.Snapshot{}, fmt.Errorf("snapshot store not initialized")
	}
	id, err := cleanID(id)
	if err != nil {
		return game.Snapshot{}, err
	}
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return game.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return game.Snapshot{}, err
	}
	var snap game.Snapshot
	if err := s.codec.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, gameKey(id))
	pipe.SRem(ctx, indexKey(), id)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the ids of snapshots that still exist, pruning expired ones
// from the index.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	ids, err := s.rdb.SMembers(ctx, indexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, gameKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.rdb.SRem(ctx, indexKey(), id).Err()
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// Update applies fn to the stored snapshot under WATCH, so concurrent
// writers cannot interleave. fn may return an error to abort.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*game.Snapshot) error) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("snapshot store not initialized")
	}
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	key := gameKey(id)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur game.Snapshot
		if err := s.codec.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", id, err)
		}
		if err := fn(&cur); err != nil {
			return err
		}
		newRaw, err := s.codec.Marshal(&cur)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newRaw, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
