package streaming

import (
	"context"

	"scamshield/internal/domain/models"
)

// EventBusPublisher implements community.EventPublisher on top of the
// event bus and the WebSocket hub
type EventBusPublisher struct {
	eventBus *EventBus
	wsHub    *WebSocketHub
}

// NewEventBusPublisher creates a new publisher adapter. Either side may be nil.
func NewEventBusPublisher(eventBus *EventBus, wsHub *WebSocketHub) *EventBusPublisher {
	return &EventBusPublisher{
		eventBus: eventBus,
		wsHub:    wsHub,
	}
}

// Publish sends the event to the bus (NATS plus local subscribers) and to
// connected WebSocket clients
func (p *EventBusPublisher) Publish(ctx context.Context, event *models.CommunityEvent) error {
	if p.eventBus != nil {
		if err := p.eventBus.Publish(ctx, event); err != nil {
			return err
		}
	}

	if p.wsHub != nil {
		p.wsHub.BroadcastEvent(event)
	}

	return nil
}
