package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// AuthChannel is the pub/sub channel carrying session messages.
const AuthChannel = "auth"

// Broadcaster publishes session messages over Redis pub/sub.
type Broadcaster struct {
	client *redis.Client
	origin string
	log    zerolog.Logger
}

var _ ports.Broadcaster = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster identified by origin.
func NewBroadcaster(client *redis.Client, origin string, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{client: client, origin: origin, log: log}
}

func (b *Broadcaster) Origin() string {
	return b.origin
}

// Publish never reports failure to the caller.
func (b *Broadcaster) Publish(ctx context.Context, msg domain.SessionMessage) {
	msg.Origin = b.origin
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Debug().Err(err).Msg("encode session message")
		return
	}
	if err := b.client.Publish(ctx, AuthChannel, payload).Err(); err != nil {
		b.log.Debug().Err(err).Str("action", string(msg.Action)).Msg("broadcast unavailable")
	}
}

func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan domain.SessionMessage, error) {
	sub := b.client.Subscribe(ctx, AuthChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", AuthChannel, err)
	}

	out := make(chan domain.SessionMessage)
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
				var msg domain.SessionMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Debug().Err(err).Msg("ignoring malformed session message")
					continue
				}
				if msg.Origin == b.origin {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (b *Broadcaster) Close() error {
	return nil
}
