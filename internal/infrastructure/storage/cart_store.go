package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// CartStore serializes the cart as a JSON array under the cartItems key.
type CartStore struct {
	kv  ports.KeyValueStore
	log zerolog.Logger
}

var _ ports.CartStore = (*CartStore)(nil)

func NewCartStore(kv ports.KeyValueStore, log zerolog.Logger) *CartStore {
	return &CartStore{kv: kv, log: log}
}

func (s *CartStore) LoadItems(ctx context.Context) ([]domain.CartItem, error) {
	raw, ok, err := s.kv.Get(ctx, ports.KeyCartItems)
	if err != nil {
		return nil, fmt.Errorf("cart store: load: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn().Err(err).Msg("stored cart is not valid JSON, starting empty")
		return nil, nil
	}
	return items, nil
}

func (s *CartStore) SaveItems(ctx context.Context, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart store: encode: %w", err)
	}
	if err := s.kv.Set(ctx, ports.KeyCartItems, string(raw)); err != nil {
		return fmt.Errorf("cart store: save: %w", err)
	}
	return nil
}
