package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/api/metrics"
	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// CartService keeps a restaurant-scoped food cart in memory and in storage.
// Every mutation is persisted before it becomes visible.
type CartService struct {
	mu    sync.Mutex
	items []domain.CartItem

	store ports.CartStore
	log   zerolog.Logger
}

func NewCartService(store ports.CartStore, log zerolog.Logger) *CartService {
	return &CartService{store: store, log: log}
}

// Load replaces the in-memory cart with the stored one.
func (s *CartService) Load(ctx context.Context) error {
	items, err := s.store.LoadItems(ctx)
	if err != nil {
		return err
	}
	items = sanitize(items)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Resync is Load for change notifications; failures are only logged.
func (s *CartService) Resync(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cart resync failed")
	}
}

// Items returns a copy of the cart lines.
func (s *CartService) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.items...)
}

// Add puts item into the cart. An item from a different restaurant than the
// current contents replaces the whole cart; replaced reports that case.
// Adding an existing name increases its quantity.
func (s *CartService) Add(ctx context.Context, item domain.CartItem) (replaced bool, err error) {
	if item.Name == "" || item.RestaurantID == "" || item.Price < 0 {
		return false, domain.ErrInvalidCartItem
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next []domain.CartItem
	switch {
	case len(s.items) > 0 && s.items[0].RestaurantID != item.RestaurantID:
		next = []domain.CartItem{item}
		replaced = true
	default:
		next = append([]domain.CartItem(nil), s.items...)
		found := false
		for i := range next {
			if next[i].Name == item.Name {
				next[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			next = append(next, item)
		}
	}

	if err := s.commitLocked(ctx, next); err != nil {
		return false, err
	}
	op := "add"
	if replaced {
		op = "replace"
		s.log.Info().Str("restaurant_id", item.RestaurantID).Msg("cart replaced by item from another restaurant")
	}
	metrics.CartOperationsTotal.WithLabelValues(op).Inc()
	return replaced, nil
}

// Remove deletes the line with the given name.
func (s *CartService) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(name)
	if idx < 0 {
		return domain.ErrCartItemNotFound
	}
	next := append(append([]domain.CartItem(nil), s.items[:idx]...), s.items[idx+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("remove").Inc()
	return nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, name string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(name)
	if idx < 0 {
		return domain.ErrCartItemNotFound
	}
	next := append([]domain.CartItem(nil), s.items...)
	next[idx].Quantity = quantity
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("update").Inc()
	return nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitLocked(ctx, nil); err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("clear").Inc()
	return nil
}

// Total is the sum of line subtotals.
func (s *CartService) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Count is the number of units across all lines.
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// RestaurantID returns the owning restaurant, or "" for an empty cart.
func (s *CartService) RestaurantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return ""
	}
	return s.items[0].RestaurantID
}

// Listen reloads the cart whenever another context rewrites it.
func (s *CartService) Listen(ctx context.Context, watcher ports.StorageWatcher) error {
	events, err := watcher.Watch(ctx)
	if errors.Is(err, domain.ErrWatchUnsupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: watch storage: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Key == ports.KeyCartItems {
					s.Resync(ctx)
				}
			}
		}
	}()
	return nil
}

func (s *CartService) indexLocked(name string) int {
	for i, it := range s.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func (s *CartService) commitLocked(ctx context.Context, next []domain.CartItem) error {
	if err := s.store.SaveItems(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// sanitize drops lines that break the cart invariants (bad quantity, or a
// restaurant other than the first line's).
func sanitize(items []domain.CartItem) []domain.CartItem {
	if len(items) == 0 {
		return nil
	}
	owner := items[0].RestaurantID
	out := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.RestaurantID != owner || it.Name == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}
