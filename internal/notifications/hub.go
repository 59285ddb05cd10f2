package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventStatementIngested = "statement.ingested"
	EventPlanGenerated     = "plan.generated"
	EventPaymentMarked     = "payment.marked"
)

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// StatementIngested — событие о загруженной выписке по счету.
func StatementIngested(accountID uuid.UUID, newBalanceCents int64) Event {
	return Event{
		Type: EventStatementIngested,
		Data: map[string]interface{}{
			"account_id":        accountID,
			"new_balance_cents": newBalanceCents,
		},
	}
}

// PlanGenerated — событие о рассчитанном плане платежей за месяц.
func PlanGenerated(month, year int, totalAllocatedCents int64) Event {
	return Event{
		Type: EventPlanGenerated,
		Data: map[string]interface{}{
			"month":                 month,
			"year":                  year,
			"total_allocated_cents": totalAllocatedCents,
		},
	}
}

// PaymentMarked — событие об отмеченном платеже по счету.
func PaymentMarked(accountID uuid.UUID, month, year int) Event {
	return Event{
		Type: EventPaymentMarked,
		Data: map[string]interface{}{
			"account_id": accountID,
			"month":      month,
			"year":       year,
		},
	}
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 10)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if subs, exists := h.subscribers[userID]; exists {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		close(ch)
	}
}

// Publish отправляет событие всем подписчикам пользователя.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscribers[userID]
	if !ok {
		return
	}

	for ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
