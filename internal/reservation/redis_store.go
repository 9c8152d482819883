package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "funnel:reservation:"
	redisIndexKey  = "funnel:reservations:by-time"
)

// RedisStore keeps reservations as JSON values with a sorted-set index on
// ReservedAt so stale holds can be swept in one range query. Keys carry a
// physical expiry of twice the TTL as a backstop for missed sweeps.
type RedisStore struct {
	client *redis.Client
	keyTTL time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, keyTTL: 2 * ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Reservation, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Reservation{}, false, nil
	}
	if err != nil {
		return Reservation{}, false, err
	}
	var r Reservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reservation{}, false, fmt.Errorf("decode reservation: %w", err)
	}
	return r, true, nil
}

func (s *RedisStore) Put(ctx context.Context, r Reservation) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+r.SessionID, raw, s.keyTTL)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(r.ReservedAt.UnixMilli()), Member: r.SessionID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+sessionID)
	pipe.ZRem(ctx, redisIndexKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// sweepScript removes every indexed hold scored below ARGV[1] in one atomic
// step, so a hold re-reserved during the sweep carries its new score and is
// never dropped.
var sweepScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
	redis.call('DEL', ARGV[2] .. id)
	redis.call('ZREM', KEYS[1], id)
end
return #ids
`)

func (s *RedisStore) DeleteReservedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	upper := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	removed, err := sweepScript.Run(ctx, s.client, []string{redisIndexKey}, upper, redisKeyPrefix).Int()
	if err != nil {
		return 0, err
	}
	return removed, nil
}

var _ Store = (*RedisStore)(nil)
