// Package events carries domain events from the ledger to interested
// subscribers (push notifications, message brokers, tests).
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Type names a domain event. Values match what clients subscribe to.
type Type string

const (
	ExpenseCreated      Type = "expense:created"
	ExpenseUpdated      Type = "expense:updated"
	ExpenseDeleted      Type = "expense:deleted"
	SettlementCreated   Type = "settlement:created"
	SettlementCompleted Type = "settlement:completed"
	SettlementRejected  Type = "settlement:rejected"
	MemberAdded         Type = "group:member_added"
	MemberRemoved       Type = "group:member_removed"
	GroupUpdated        Type = "group:updated"
	GroupDeleted        Type = "group:deleted"
)

// Event is emitted after a ledger mutation has been committed.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	GroupID    string    `json:"group_id"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`

	// Summary fields, set when they apply to the event type.
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	PayerID     string `json:"payer_id,omitempty"`
	PayeeID     string `json:"payee_id,omitempty"`
	MemberID    string `json:"member_id,omitempty"`
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Observer is notified of every delivery attempt.
type Observer interface {
	EventPublished(eventType string)
	EventDropped(eventType string)
}

// Bus fans events out to subscribers over buffered channels.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool

	buffer   int
	logger   *slog.Logger
	observer Observer
}

type Option func(*Bus)

// WithObserver reports deliveries and drops to o.
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observer = o }
}

// WithLogger sets the logger used for dropped events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// NewBus creates a bus whose subscribers each buffer up to buffer events.
func NewBus(buffer int, opts ...Option) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	b := &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes its channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber that has room for it.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- e:
			if b.observer != nil {
				b.observer.EventPublished(string(e.Type))
			}
		default:
			b.logger.WarnContext(ctx, "Dropping event for slow subscriber", "type", e.Type, "group_id", e.GroupID)
			if b.observer != nil {
				b.observer.EventDropped(string(e.Type))
			}
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
