// Package broadcast provides in-process implementations of ports.Broadcaster.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

const (
	subscriberBuffer = 16
	sendTimeout      = 50 * time.Millisecond
)

// Hub fans session messages out to every endpoint joined to it. It stands in
// for a same-origin broadcast channel when all contexts live in one process.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan domain.SessionMessage]string
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan domain.SessionMessage]string)}
}

// NewOrigin returns a random id identifying one context on a channel.
func NewOrigin() string {
	return uuid.NewString()
}

// Join returns an endpoint with a fresh origin id.
func (h *Hub) Join() *Endpoint {
	return &Endpoint{hub: h, origin: NewOrigin()}
}

func (h *Hub) publish(msg domain.SessionMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, origin := range h.subs {
		if origin == msg.Origin {
			continue
		}
		select {
		case ch <- msg:
		case <-time.After(sendTimeout):
		}
	}
}

func (h *Hub) subscribe(ctx context.Context, origin string) <-chan domain.SessionMessage {
	ch := make(chan domain.SessionMessage, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = origin
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// Endpoint is one context's view of a Hub.
type Endpoint struct {
	hub    *Hub
	origin string
}

var _ ports.Broadcaster = (*Endpoint)(nil)

func (e *Endpoint) Origin() string {
	return e.origin
}

func (e *Endpoint) Publish(_ context.Context, msg domain.SessionMessage) {
	msg.Origin = e.origin
	e.hub.publish(msg)
}

func (e *Endpoint) Subscribe(ctx context.Context) (<-chan domain.SessionMessage, error) {
	return e.hub.subscribe(ctx, e.origin), nil
}

func (e *Endpoint) Close() error {
	return nil
}
