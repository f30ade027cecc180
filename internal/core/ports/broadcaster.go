package ports

import (
	"context"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// Broadcaster notifies other contexts that the session changed.
// Publish is best-effort: it never fails the caller and never blocks on
// an unavailable transport. Subscribe yields messages from other origins only.
type Broadcaster interface {
	Origin() string
	Publish(ctx context.Context, msg domain.SessionMessage)
	Subscribe(ctx context.Context) (<-chan domain.SessionMessage, error)
	Close() error
}
