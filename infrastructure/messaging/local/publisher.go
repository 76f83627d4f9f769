// Package local delivers domain events inside the process and optionally
// forwards them to an outer bus such as EventBridge.
package local

import (
	"context"
	"sync"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	"go.uber.org/zap"
)

// Handler reacts to a published event
type Handler func(ctx context.Context, event events.DomainEvent)

// Publisher logs every event and hands it to the subscribers of its type
type Publisher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	next     ports.EventPublisher
	logger   *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{handlers: make(map[string][]Handler), logger: logger}
}

// Forward sends every event on to next after the local subscribers ran
func (p *Publisher) Forward(next ports.EventPublisher) *Publisher {
	p.next = next
	return p
}

// Subscribe registers h for eventType; "*" receives everything
func (p *Publisher) Subscribe(eventType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], h)
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.dispatch(ctx, event)
	if p.next != nil {
		return p.next.Publish(ctx, event)
	}
	return nil
}

func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, e := range domainEvents {
		p.dispatch(ctx, e)
	}
	if p.next != nil && len(domainEvents) > 0 {
		return p.next.PublishBatch(ctx, domainEvents)
	}
	return nil
}

func (p *Publisher) dispatch(ctx context.Context, event events.DomainEvent) {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)

	p.mu.RLock()
	handlers := append(append([]Handler(nil), p.handlers[event.GetEventType()]...), p.handlers["*"]...)
	p.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}
