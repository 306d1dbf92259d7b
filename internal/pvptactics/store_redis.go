package pvptactics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/squad-tactics/internal/tactics"
)

const (
	defaultGameTTL = 24 * time.Hour
	maxTxRetries   = 8
)

// RedisStore keeps one JSON blob per game plus a per-player index set. Both
// expire after the configured TTL; writes refresh it.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultGameTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// OpenRedis dials REDIS_URL and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func gameKey(id string) string          { return "tactics:game:" + strings.TrimSpace(id) }
func idxPlayerKey(player string) string { return "tactics:index:player:" + strings.TrimSpace(player) }

func (s *RedisStore) Create(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, gameKey(g.ID()), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("game %s already exists", g.ID())
	}
	pipe := s.rdb.TxPipeline()
	for _, p := range []string{g.Session.Player1, g.Session.Player2} {
		pipe.SAdd(ctx, idxPlayerKey(p), g.ID())
		pipe.Expire(ctx, idxPlayerKey(p), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Game, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

// Update runs fn inside WATCH/MULTI and retries when another writer touched
// the key between read and commit.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Game) error) (*Game, error) {
	key := gameKey(id)
	var out *Game
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return tactics.ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur Game
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode game %s: %w", id, err)
		}
		if err := fn(&cur); err != nil {
			return err
		}
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newRaw, s.ttl)
			pipe.Expire(ctx, idxPlayerKey(cur.Session.Player1), s.ttl)
			pipe.Expire(ctx, idxPlayerKey(cur.Session.Player2), s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = &cur
		return nil
	}
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrContended
}

// ListByPlayer drops index entries whose game blob has already expired.
func (s *RedisStore) ListByPlayer(ctx context.Context, player string) ([]*Game, error) {
	key := idxPlayerKey(player)
	ids, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var out []*Game
	for _, id := range ids {
		g, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if g == nil {
			_ = s.rdb.SRem(ctx, key, id).Err()
			continue
		}
		out = append(out, g)
	}
	sortByUpdated(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
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
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}
