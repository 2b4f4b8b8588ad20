package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTTL bounds how long an abandoned session lingers.
const DefaultTTL = 30 * time.Minute

// Store persists wizard state between requests.
type Store interface {
	Save(ctx context.Context, st *State) error
	Load(ctx context.Context, token string) (*State, error)
	Delete(ctx context.Context, token string) error
}

// RedisStore keeps each session as a JSON blob with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("intake: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("clinic.internal.intake.store"),
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("intake:session:%s", token)
}

func (s *RedisStore) Save(ctx context.Context, st *State) error {
	ctx, span := s.tracer.Start(ctx, "intake.save_session")
	defer span.End()

	data, err := json.Marshal(st)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(st.Token), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "intake.load_session")
	defer span.End()

	if token == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.redis.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("intake: failed to load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: failed to decode session: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("intake: failed to delete session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("intake: failed to marshal session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.Token] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, token string) (*State, error) {
	s.mu.Lock()
	entry, ok := s.sessions[token]
	if ok && !s.now().Before(entry.expires) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var st State
	if err := json.Unmarshal(entry.data, &st); err != nil {
		return nil, fmt.Errorf("intake: failed to decode session: %w", err)
	}
	return &st, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
