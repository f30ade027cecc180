package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

func TestHub_DeliversToOtherOrigins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	a, b := hub.Join(), hub.Join()
	if a.Origin() == b.Origin() {
		t.Fatalf("expected distinct origins")
	}

	fromA, _ := a.Subscribe(ctx)
	fromB, _ := b.Subscribe(ctx)

	a.Publish(ctx, domain.SessionMessage{Action: domain.ActionLogout, Timestamp: time.Now()})

	select {
	case msg := <-fromB:
		if msg.Action != domain.ActionLogout || msg.Origin != a.Origin() {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("b did not receive a's message")
	}

	select {
	case msg := <-fromA:
		t.Fatalf("publisher must not receive its own message: %+v", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Join().Publish(context.Background(), domain.SessionMessage{Action: domain.ActionLogin})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked")
	}
}

func TestNop_SubscribeClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewNop().Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
