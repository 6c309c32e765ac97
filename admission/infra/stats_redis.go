package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por boundary.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackBoundaries bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackBoundaries(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackBoundaries = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "admission:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "rejected"
	switch {
	case ev.Allowed && ev.Preempted:
		field = "preempted"
	case ev.Allowed:
		field = "admitted"
	}

	totalKey := s.prefix + ":total"

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if ev.StrategyID != "" {
		strategyKey := s.prefix + ":strategy"
		pipe.HIncrBy(ctx, strategyKey, string(ev.StrategyID)+":"+field, 1)
	}

	if !ev.Allowed && ev.Reason != "" {
		reasonKey := s.prefix + ":reason"
		pipe.HIncrBy(ctx, reasonKey, string(ev.Reason), 1)
	}

	if s.trackBoundaries {
		b := strings.TrimSpace(string(ev.Boundary))
		if b != "" {
			boundaryKey := s.prefix + ":boundary:" + b
			pipe.HIncrBy(ctx, boundaryKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, boundaryKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
