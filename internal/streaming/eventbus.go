package streaming

import (
	"context"
	"strconv"
	"sync"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// EventBus fans community events out to in-process subscribers and, when
// configured, to NATS for other instances
type EventBus struct {
	nats   *NATSPublisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]*subscriber
	nextID      int
}

type subscriber struct {
	ch  chan *models.CommunityEvent
	sub *Subscription
}

// NewEventBus creates a new event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]*subscriber),
	}
}

// Publish publishes an event to NATS and to every matching subscriber.
// Slow subscribers drop events rather than block the publisher.
func (eb *EventBus) Publish(ctx context.Context, event *models.CommunityEvent) error {
	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.PublishEvent(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, s := range eb.subscribers {
		if !s.sub.Matches(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return nil
}

// Subscribe registers a subscriber and returns its channel and an
// unsubscribe func. A nil subscription receives everything.
func (eb *EventBus) Subscribe(sub *Subscription) (<-chan *models.CommunityEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := strconv.Itoa(eb.nextID)
	s := &subscriber{ch: make(chan *models.CommunityEvent, 100), sub: sub}
	eb.subscribers[id] = s
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(s.ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	return s.ch, unsubscribe
}

// Consume runs handle for every matching event until ctx is done or the
// bus closes. It blocks.
func (eb *EventBus) Consume(ctx context.Context, sub *Subscription, handle func(context.Context, *models.CommunityEvent)) {
	ch, unsubscribe := eb.Subscribe(sub)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			handle(ctx, event)
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes the event bus
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, s := range eb.subscribers {
		close(s.ch)
		delete(eb.subscribers, id)
	}

	if eb.nats != nil {
		eb.nats.Close()
	}
}
