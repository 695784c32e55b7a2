package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devcareer/compass-backend/internal/platform/ctxutil"
	"github.com/devcareer/compass-backend/internal/platform/envutil"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

// answerCacheKey folds the graph version into the key, so a refresh naturally
// invalidates every cached answer without explicit eviction.
func answerCacheKey(query string, category Category, graphVersion string) string {
	sum := sha256.Sum256([]byte(query + "|" + string(category) + "|" + graphVersion))
	return "compass:answer:" + hex.EncodeToString(sum[:])
}

// RedisAnswerCache is a best-effort cache: any backend error reads as a miss
// on Get and is logged and dropped on Set.
type RedisAnswerCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisAnswerCacheFromEnv returns (nil, nil) when REDIS_ADDR is unset; the
// cache is opt-in.
func NewRedisAnswerCacheFromEnv(log *logger.Logger) (*RedisAnswerCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envutil.Int("REDIS_DB", 0),
	})

	pingCtx, cancel := ctxutil.Default(context.Background())
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	ttl := time.Duration(envutil.Int("ANSWER_CACHE_TTL_SECONDS", 300)) * time.Second
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "AnswerCache")
		scoped.Info("redis answer cache enabled", "addr", addr, "ttl", ttl.String())
	}
	return &RedisAnswerCache{log: scoped, rdb: rdb, ttl: ttl}, nil
}

func (c *RedisAnswerCache) Get(ctx context.Context, key string) (*Answer, bool) {
	if c == nil {
		return nil, false
	}
	callCtx, cancel := ctxutil.Default(ctx)
	defer cancel()

	raw, err := c.rdb.Get(callCtx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var answer Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, false
	}
	return &answer, true
}

func (c *RedisAnswerCache) Set(ctx context.Context, key string, answer *Answer) {
	if c == nil || answer == nil {
		return
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	callCtx, cancel := ctxutil.Default(ctx)
	defer cancel()

	if err := c.rdb.Set(callCtx, key, raw, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("answer cache write failed", "error", err)
	}
}

func (c *RedisAnswerCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
