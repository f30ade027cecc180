package ports

import (
	"context"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// Persisted keys shared by every context of the same origin.
const (
	KeyUser       = "user"
	KeyToken      = "token"
	KeyRememberMe = "rememberMe"
	KeyCartItems  = "cartItems"
)

// KeyValueStore is durable string storage. Get reports ok=false for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// StorageWatcher is implemented by backends that can notify about writes made
// by any context, including ones in other processes. Backends without change
// notifications return domain.ErrWatchUnsupported.
type StorageWatcher interface {
	Watch(ctx context.Context) (<-chan domain.StorageEvent, error)
}

// SessionStore persists the identity/token pair and the remember-me flag.
type SessionStore interface {
	Save(ctx context.Context, identity *domain.Identity, token string, rememberMe bool) error
	Load(ctx context.Context) (domain.StoredSession, error)
	Clear(ctx context.Context, preserveRememberMe bool) error
}

// CartStore persists the cart contents.
type CartStore interface {
	LoadItems(ctx context.Context) ([]domain.CartItem, error)
	SaveItems(ctx context.Context, items []domain.CartItem) error
}
