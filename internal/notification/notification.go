package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KindListed is emitted when an asset is listed or its price is updated.
	KindListed = "item_listed"
	// KindCanceled is emitted when a seller cancels a listing.
	KindCanceled = "item_canceled"
	// KindBought is emitted when a listing is purchased.
	KindBought = "item_bought"
)

// Event describes a marketplace event consumed by observers and indexers.
// Price carries the listing price for Listed and the amount paid for Bought.
type Event struct {
	Kind       string    `json:"kind"`
	Collection string    `json:"collection"`
	TokenID    int64     `json:"token_id"`
	Seller     string    `json:"seller,omitempty"`
	Buyer      string    `json:"buyer,omitempty"`
	Price      int64     `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to downstream systems.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LoggerPublisher writes events to the structured logger.
type LoggerPublisher struct {
	logger *slog.Logger
}

// NewLoggerPublisher constructs a logging publisher.
func NewLoggerPublisher(logger *slog.Logger) *LoggerPublisher {
	return &LoggerPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LoggerPublisher) Publish(_ context.Context, event Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("marketplace event",
		slog.String("kind", event.Kind),
		slog.String("collection", event.Collection),
		slog.Int64("token_id", event.TokenID),
		slog.String("seller", event.Seller),
		slog.String("buyer", event.Buyer),
		slog.Int64("price", event.Price),
	)
	return nil
}

// RedisPublisher publishes JSON encoded events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher builds a publisher for channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish encodes the event and sends it to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

// Publish delivers event to all publishers, even when some fail.
func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory. Useful for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
