package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// Store keeps client state in Redis so several processes share it like tabs
// share browser storage. Every write is announced on <prefix>storage.
// Key format: <prefix><key>
type Store struct {
	client *redis.Client
	prefix string
}

var _ ports.KeyValueStore = (*Store)(nil)
var _ ports.StorageWatcher = (*Store)(nil)

// NewStore creates a Store wrapping the given Redis client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	s.announce(ctx, key)
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	for _, k := range keys {
		s.announce(ctx, k)
	}
	return nil
}

// Watch subscribes to the storage channel until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan domain.StorageEvent, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.StorageEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- domain.StorageEvent{Key: m.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// announce is best-effort; readers re-fetch values so a lost notice only
// delays convergence.
func (s *Store) announce(ctx context.Context, key string) {
	_ = s.client.Publish(ctx, s.channel(), key).Err()
}

func (s *Store) channel() string {
	return s.prefix + "storage"
}
