package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitledger_is_session_revoked_duration_ms",
		Help:    "Latency of session revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for revoked sessions.
	revokedSessionKeyPrefix = "srl:session:"
)

// RedisStore is a Redis-backed revocation store. This is the production
// implementation for deployments where more than one instance must share
// revocation state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed session revocation store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Revoke flags a session with TTL. Uses atomic set-with-expiry; the key
// existence is what matters, the value is a marker.
func (s *RedisStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	return s.client.Set(ctx, revokedSessionKeyPrefix+sessionID, "1", ttl).Err()
}

// RevokeAll flags every given session in one pipelined round trip.
func (s *RedisStore) RevokeAll(ctx context.Context, sessionIDs []string, ttl time.Duration) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, sid := range sessionIDs {
		if sid != "" {
			pipe.Set(ctx, revokedSessionKeyPrefix+sid, "1", ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// IsRevoked checks the flag. A missing key reads as not revoked (either never
// flagged or the flag lapsed with the token's lifetime).
func (s *RedisStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if sessionID == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, revokedSessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
