// Package mq announces booking lifecycle changes on a RabbitMQ topic exchange.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/domain/booking"
)

// DefaultExchange is used when no exchange name is configured.
const DefaultExchange = "partyplanner.bookings"

// Message is the JSON body of every published notification.
type Message struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Booking    api.Event `json:"booking"`
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes persistent JSON messages to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	now      func() time.Time

	mu sync.Mutex
	ch channel
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, now: time.Now}
}

// PublishBooking sends b under the routing key.
// POST: one persistent message on the exchange, or an error
func (p *Publisher) PublishBooking(ctx context.Context, key string, b booking.Booking) error {
	msg := Message{ID: uuid.NewString(), Key: key, OccurredAt: p.now().UTC(), Booking: api.FromBooking(b)}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.OccurredAt,
		Type:         key,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	slog.Debug("mq_event", "event", "published", "key", key, "event_id", b.Event.ID, "message_id", msg.ID)
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops every message. It is used when no broker is configured.
type NoopPublisher struct{}

// PublishBooking logs the key and returns nil.
func (NoopPublisher) PublishBooking(ctx context.Context, key string, b booking.Booking) error {
	slog.Debug("mq_event", "event", "publish_skipped", "key", key, "event_id", b.Event.ID)
	return nil
}

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }
