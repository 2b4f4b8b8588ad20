package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSlotLocked is returned when another request holds the slot lock.
var ErrSlotLocked = errors.New("availability: slot is being booked")

// SlotLocker serializes the availability check and insert for one slot.
type SlotLocker interface {
	Lock(ctx context.Context, date civil.Date, t ClockTime) (unlock func(), err error)
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSlotLocker holds a SET NX key per (date, time) for up to ttl.
type RedisSlotLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) *RedisSlotLocker {
	if client == nil {
		panic("availability: redis client required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisSlotLocker{redis: client, ttl: ttl}
}

func (l *RedisSlotLocker) key(date civil.Date, t ClockTime) string {
	return fmt.Sprintf("slotlock:%s:%s", date, t)
}

func (l *RedisSlotLocker) Lock(ctx context.Context, date civil.Date, t ClockTime) (func(), error) {
	key := l.key(date, t)
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("availability: acquire slot lock: %w", err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}
	return func() {
		// Release on a fresh context so a cancelled request still frees the slot.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.redis, []string{key}, token).Err()
	}, nil
}
