package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

func TestBroadcaster_DeliversToOtherOrigins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, client := newTestClient(t)

	a := NewBroadcaster(client, "origin-a", zerolog.Nop())
	b := NewBroadcaster(client, "origin-b", zerolog.Nop())

	fromA, err := a.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	fromB, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}

	a.Publish(ctx, domain.SessionMessage{
		Action:    domain.ActionLogin,
		User:      &domain.Identity{ID: "1", Role: domain.RoleUser},
		Timestamp: time.Now().UTC(),
	})

	select {
	case msg := <-fromB:
		if msg.Action != domain.ActionLogin || msg.Origin != "origin-a" {
			t.Fatalf("unexpected message %+v", msg)
		}
		if msg.User == nil || msg.User.ID != "1" {
			t.Fatalf("user not carried: %+v", msg.User)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("b received nothing")
	}

	select {
	case msg := <-fromA:
		t.Fatalf("publisher received its own message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_IgnoresMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, client := newTestClient(t)

	b := NewBroadcaster(client, "origin-b", zerolog.Nop())
	msgs, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := client.Publish(ctx, AuthChannel, "not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	NewBroadcaster(client, "origin-a", zerolog.Nop()).Publish(ctx, domain.SessionMessage{Action: domain.ActionLogout})

	select {
	case msg := <-msgs:
		if msg.Action != domain.ActionLogout {
			t.Fatalf("expected the logout after the malformed payload, got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message after malformed payload")
	}
}
