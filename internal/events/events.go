package events

import (
	"context"
	"encoding/json"
	"time"
	"timeoff/config"
	"timeoff/internal/database"
	"timeoff/internal/logger"

	"github.com/valkey-io/valkey-go"
)

const changeChannel = "timeoff.changes"

// ChangeEvent is published after every committed mutation or settled
// refresh, so connected dashboards can re-render their buckets.
type ChangeEvent struct {
	Type       string    `json:"type"` // reconciled, request.created, request.updated, request.deleted, status.changed
	Scope      string    `json:"scope"`
	RequestIDs []string  `json:"requestIds,omitempty"`
	Pending    int       `json:"pending"`
	Upcoming   int       `json:"upcoming"`
	Past       int       `json:"past"`
	At         time.Time `json:"at"`
}

// EventBus fans change events out through the cache layer's pub/sub,
// decoupling publishers from however many websocket sessions are
// listening.
type EventBus struct {
	client database.CacheClient
	log    logger.Logger
	cancel context.CancelFunc
}

func New(client database.CacheClient, config config.Config) *EventBus {
	return &EventBus{
		client: client,
		log:    logger.New("EventBus"),
	}
}

func (b *EventBus) Publish(ctx context.Context, event ChangeEvent) error {
	log := b.log.Function("Publish")

	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal change event", err, "type", event.Type)
	}

	cmd := b.client.B().Publish().Channel(changeChannel).Message(string(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return log.Err("failed to publish change event", err, "type", event.Type)
	}

	return nil
}

// Subscribe delivers every change event to handler on a background
// goroutine until the bus is closed.
func (b *EventBus) Subscribe(handler func(ChangeEvent)) {
	log := b.log.Function("Subscribe")

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	go func() {
		err := b.client.Receive(ctx, b.client.B().Subscribe().Channel(changeChannel).Build(),
			func(msg valkey.PubSubMessage) {
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
					log.Er("failed to unmarshal change event", err)
					return
				}
				handler(event)
			})
		if err != nil && ctx.Err() == nil {
			log.Er("subscription ended", err)
		}
	}()
}

func (b *EventBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}
