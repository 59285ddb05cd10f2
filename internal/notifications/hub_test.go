package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	accountID := uuid.New()
	hub.Publish(userID, StatementIngested(accountID, 123456))

	select {
	case event := <-ch:
		if event.Type != EventStatementIngested {
			t.Fatalf("expected event type %s, got %s", EventStatementIngested, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubUserIsolation проверяет, что события не утекают другим пользователям.
func TestHubUserIsolation(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()

	chAlice, unsubAlice := hub.Subscribe(alice)
	defer unsubAlice()
	_, unsubBob := hub.Subscribe(bob)
	defer unsubBob()

	hub.Publish(bob, PlanGenerated(11, 2025, 49500))

	select {
	case event := <-chAlice:
		t.Fatalf("unexpected event for alice: %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}
