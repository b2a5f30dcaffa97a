package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis-backed store and limiter for scaled deployments. When the
// coordinator runs as more than one instance, local maps silently fail
// to coordinate; these implementations keep code and cooldown state in
// a shared cache instead. Entries carry a TTL so redis itself drops
// anything a sweep misses.

const (
	redisCodePrefix     = "recovery:code:"
	redisCooldownPrefix = "recovery:cooldown:"
)

// RedisCodeStore implements CodeStore on top of a redis client
type RedisCodeStore struct {
	client *redis.Client
	seal   *sealer
}

// NewRedisCodeStore wraps a redis client. sealKey, when non-nil, must
// be 32 bytes; code values are then AES-GCM sealed before being stored.
func NewRedisCodeStore(client *redis.Client, sealKey []byte) (*RedisCodeStore, error) {
	s, err := newSealer(sealKey)
	if err != nil {
		return nil, err
	}
	return &RedisCodeStore{client: client, seal: s}, nil
}

func (s *RedisCodeStore) Get(ctx context.Context, key CompositeKey) (*CodeRecord, error) {
	raw, err := s.client.Get(ctx, redisCodePrefix+key.String()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read code record: %w", err)
	}

	var rec CodeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode code record: %w", err)
	}
	code, err := s.seal.open(rec.Code)
	if err != nil {
		return nil, err
	}
	rec.Code = code
	return &rec, nil
}

func (s *RedisCodeStore) PutNew(ctx context.Context, key CompositeKey, code string, now time.Time) (*CodeRecord, error) {
	rec := CodeRecord{
		Code:     code,
		IssuedAt: now,
		Channel:  key.Channel,
	}
	if err := s.write(ctx, key, rec, recordTTL(rec, now)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisCodeStore) MarkDelivered(ctx context.Context, key CompositeKey) error {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no code record for key %s", key)
	}
	rec.Delivered = true
	// KeepTTL: the rewrite must not extend the record's validity
	return s.write(ctx, key, *rec, redis.KeepTTL)
}

func (s *RedisCodeStore) Delete(ctx context.Context, key CompositeKey) error {
	if err := s.client.Del(ctx, redisCodePrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete code record: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) SweepExpired(ctx context.Context, now time.Time) ([]CompositeKey, error) {
	var removed []CompositeKey
	err := s.scan(ctx, redisCodePrefix+"*", func(key CompositeKey, rec CodeRecord) error {
		if !rec.Expired(now) {
			return nil
		}
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
		removed = append(removed, key)
		return nil
	})
	return removed, err
}

func (s *RedisCodeStore) Entries(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	err := s.scan(ctx, redisCodePrefix+prefix+"*", func(key CompositeKey, rec CodeRecord) error {
		entries = append(entries, Entry{Key: key, Record: rec})
		return nil
	})
	return entries, err
}

func (s *RedisCodeStore) write(ctx context.Context, key CompositeKey, rec CodeRecord, ttl time.Duration) error {
	sealed, err := s.seal.seal(rec.Code)
	if err != nil {
		return err
	}
	rec.Code = sealed

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode code record: %w", err)
	}
	if err := s.client.Set(ctx, redisCodePrefix+key.String(), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write code record: %w", err)
	}
	return nil
}

// recordTTL derives the redis expiry from the record's own validity,
// anchored on the caller's clock rather than the wall clock
func recordTTL(rec CodeRecord, now time.Time) time.Duration {
	ttl := rec.ExpiresAt().Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisCodeStore) scan(ctx context.Context, pattern string, fn func(CompositeKey, CodeRecord) error) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key, ok := parseRedisKey(iter.Val())
		if !ok {
			continue
		}
		rec, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if rec == nil {
			continue // expired between scan and read
		}
		if err := fn(key, *rec); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan code records: %w", err)
	}
	return nil
}

func parseRedisKey(raw string) (CompositeKey, bool) {
	raw = strings.TrimPrefix(raw, redisCodePrefix)
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return CompositeKey{}, false
	}
	ch, err := ParseChannel(parts[1])
	if err != nil {
		return CompositeKey{}, false
	}
	return CompositeKey{AccountID: parts[0], Channel: ch}, true
}

// RedisRateLimiter implements RateLimiter on top of a redis client.
// The value is the last-issued unix timestamp; the key's TTL doubles as
// the cooldown window.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter wraps a redis client
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (l *RedisRateLimiter) ShouldBlock(ctx context.Context, key CompositeKey, now time.Time) (bool, time.Duration, error) {
	raw, err := l.client.Get(ctx, redisCooldownPrefix+key.String()).Result()
	if err == redis.Nil {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read cooldown entry: %w", err)
	}

	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, 0, fmt.Errorf("failed to decode cooldown entry: %w", err)
	}
	elapsed := now.Sub(time.Unix(last, 0))
	if elapsed >= ResendCooldown {
		return false, 0, nil
	}
	return true, ResendCooldown - elapsed, nil
}

func (l *RedisRateLimiter) Mark(ctx context.Context, key CompositeKey, now time.Time) error {
	err := l.client.Set(ctx, redisCooldownPrefix+key.String(),
		strconv.FormatInt(now.Unix(), 10), ResendCooldown).Err()
	if err != nil {
		return fmt.Errorf("failed to write cooldown entry: %w", err)
	}
	return nil
}

func (l *RedisRateLimiter) Clear(ctx context.Context, key CompositeKey) error {
	if err := l.client.Del(ctx, redisCooldownPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("failed to clear cooldown entry: %w", err)
	}
	return nil
}
