package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/pkg/notify"
)

const opTimeout = 2 * time.Second

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CredentialStore keeps the bearer token under one Redis key, so several
// client processes on a kiosk share one sign-in.
// Key format: <prefix>:<storage key>
type CredentialStore struct {
	client *redis.Client
	key    string
	log    zerolog.Logger

	mu       sync.Mutex
	cached   domain.Credential
	listener notify.Notifier[domain.Credential]
}

// NewCredentialStore loads the current value of key.
func NewCredentialStore(ctx context.Context, client *redis.Client, key string, log zerolog.Logger) (*CredentialStore, error) {
	s := &CredentialStore{client: client, key: key, log: log}

	val, err := client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("credential load: %w", err)
	default:
		s.cached = domain.Credential(val)
	}
	return s, nil
}

// Get reads the key through to Redis so a sign-out in another process is
// seen here. The last known value is returned when Redis is unreachable.
func (s *CredentialStore) Get() domain.Credential {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key).Result()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, redis.Nil):
		s.cached = ""
	case err != nil:
		s.log.Warn().Err(err).Str("key", s.key).Msg("credential read failed, using cached value")
	default:
		s.cached = domain.Credential(val)
	}
	return s.cached
}

func (s *CredentialStore) Set(token domain.Credential) error {
	if token.IsZero() {
		return s.Clear()
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	s.mu.Lock()
	if err := s.client.Set(ctx, s.key, string(token), 0).Err(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("credential set: %w", err)
	}
	s.cached = token
	ticket := s.listener.Reserve()
	s.mu.Unlock()
	s.listener.Deliver(ticket, token)
	return nil
}

func (s *CredentialStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	s.mu.Lock()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("credential clear: %w", err)
	}
	s.cached = ""
	ticket := s.listener.Reserve()
	s.mu.Unlock()
	s.listener.Deliver(ticket, "")
	return nil
}

func (s *CredentialStore) CompareAndClear(expected domain.Credential) (bool, error) {
	if expected.IsZero() {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	s.mu.Lock()
	n, err := compareAndDelete.Run(ctx, s.client, []string{s.key}, string(expected)).Int()
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("credential compare-and-clear: %w", err)
	}
	if n == 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.cached = ""
	ticket := s.listener.Reserve()
	s.mu.Unlock()
	s.listener.Deliver(ticket, "")
	return true, nil
}

func (s *CredentialStore) OnChange(fn func(domain.Credential)) func() {
	return s.listener.Subscribe(fn)
}

// Close closes the Redis connection.
func (s *CredentialStore) Close() error {
	return s.client.Close()
}
