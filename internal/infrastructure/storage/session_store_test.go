package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

func sampleIdentity() *domain.Identity {
	return &domain.Identity{
		ID:          "1",
		Name:        "Alice",
		Email:       "alice@example.com",
		Role:        domain.RoleAdmin,
		Roles:       []domain.Role{domain.RoleUser},
		Permissions: []string{"tables:write"},
		LoginTime:   domain.At(time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)),
		ExpiresAt:   domain.At(time.Date(2026, 1, 3, 3, 4, 5, 0, time.UTC)),
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(NewMemory(), zerolog.Nop())

	want := sampleIdentity()
	if err := store.Save(ctx, want, "tok123", false); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != "tok123" {
		t.Fatalf("expected token tok123, got %q", got.Token)
	}
	if !reflect.DeepEqual(got.Identity, want) {
		t.Fatalf("identity mismatch:\n got  %+v\n want %+v", got.Identity, want)
	}
	if got.RememberMe || got.Corrupt {
		t.Fatalf("unexpected flags: %+v", got)
	}
}

func TestSessionStore_SaveRejectsUnpairedToken(t *testing.T) {
	kv := NewMemory()
	store := NewSessionStore(kv, zerolog.Nop())

	if err := store.Save(context.Background(), nil, "tok", false); err == nil {
		t.Fatalf("expected error saving a token without identity")
	}
	if err := store.Save(context.Background(), sampleIdentity(), "", false); err == nil {
		t.Fatalf("expected error saving an identity without token")
	}
	if kv.Len() != 0 {
		t.Fatalf("expected nothing persisted, got %d keys", kv.Len())
	}
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	got, err := NewSessionStore(NewMemory(), zerolog.Nop()).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty session, got %+v", got)
	}
}

func TestSessionStore_LoadCorruptUser(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Set(ctx, ports.KeyUser, "{not json")
	_ = kv.Set(ctx, ports.KeyToken, "tok")

	got, err := NewSessionStore(kv, zerolog.Nop()).Load(ctx)
	if err != nil {
		t.Fatalf("corrupt user must not surface as error, got %v", err)
	}
	if got.Identity != nil {
		t.Fatalf("expected absent identity, got %+v", got.Identity)
	}
	if !got.Corrupt {
		t.Fatalf("expected Corrupt to be set")
	}
	if got.Complete() {
		t.Fatalf("corrupt session must not be complete")
	}
}

func TestSessionStore_MalformedExpiryIsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Set(ctx, ports.KeyUser, `{"id":"1","name":"A","role":"user","expiresAt":"next tuesday"}`)
	_ = kv.Set(ctx, ports.KeyToken, "tok")

	got, err := NewSessionStore(kv, zerolog.Nop()).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Identity == nil || got.Identity.ExpiresAt.IsSet() {
		t.Fatalf("expected identity without expiry, got %+v", got.Identity)
	}
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name         string
		preserve     bool
		wantRemember bool
	}{
		{name: "drops remember-me", preserve: false, wantRemember: false},
		{name: "preserves remember-me", preserve: true, wantRemember: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := NewMemory()
			store := NewSessionStore(kv, zerolog.Nop())
			if err := store.Save(ctx, sampleIdentity(), "tok", true); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := store.Clear(ctx, tc.preserve); err != nil {
				t.Fatalf("clear: %v", err)
			}

			if _, ok, _ := kv.Get(ctx, ports.KeyUser); ok {
				t.Fatalf("user key survived clear")
			}
			if _, ok, _ := kv.Get(ctx, ports.KeyToken); ok {
				t.Fatalf("token key survived clear")
			}
			_, ok, _ := kv.Get(ctx, ports.KeyRememberMe)
			if ok != tc.wantRemember {
				t.Fatalf("remember-me present=%v, want %v", ok, tc.wantRemember)
			}
		})
	}
}

func TestCartStore_CorruptStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Set(ctx, ports.KeyCartItems, "[{")

	items, err := NewCartStore(kv, zerolog.Nop()).LoadItems(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
}

func TestCartStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(NewMemory(), zerolog.Nop())

	want := []domain.CartItem{{Name: "Pasta", Price: 12.5, Quantity: 2, RestaurantID: "r1", RestaurantName: "Roma"}}
	if err := store.SaveItems(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadItems(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
