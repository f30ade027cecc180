package broadcast

import (
	"context"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// Nop drops every message. Used when no cross-context channel is available.
type Nop struct {
	origin string
}

var _ ports.Broadcaster = (*Nop)(nil)

func NewNop() *Nop {
	return &Nop{origin: NewOrigin()}
}

func (n *Nop) Origin() string {
	return n.origin
}

func (n *Nop) Publish(context.Context, domain.SessionMessage) {}

// Subscribe returns a channel that closes when ctx is done.
func (n *Nop) Subscribe(ctx context.Context) (<-chan domain.SessionMessage, error) {
	ch := make(chan domain.SessionMessage)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (n *Nop) Close() error {
	return nil
}
