// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	models "storefront/model"

	"github.com/IBM/sarama"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"

	DefaultTopic = "orders"
)

type Event struct {
	EventType  string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Order      models.Order `json:"order"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

func New(p sarama.SyncProducer, topic string) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{producer: p, topic: topic, now: time.Now}
}

type DialOptions struct {
	Attempts int
	Backoff  time.Duration
	Logger   *slog.Logger
}

// Dial connects a synchronous producer, retrying while the brokers come up.
func Dial(ctx context.Context, brokers []string, topic string, opts DialOptions) (*Producer, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 10
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	var err error
	for i := 1; i <= opts.Attempts; i++ {
		var p sarama.SyncProducer
		p, err = sarama.NewSyncProducer(brokers, cfg)
		if err == nil {
			opts.Logger.Info("kafka producer ready", "brokers", brokers, "topic", topic)
			return New(p, topic), nil
		}
		opts.Logger.Warn("waiting for kafka", "attempt", i, "of", opts.Attempts, "error", err)
		if i == opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
	return nil, fmt.Errorf("kafka producer after %d attempts: %w", opts.Attempts, err)
}

func (p *Producer) PublishOrderPlaced(ctx context.Context, o models.Order) error {
	return p.publish(ctx, OrderPlaced, o)
}

func (p *Producer) PublishOrderStatusChanged(ctx context.Context, o models.Order) error {
	return p.publish(ctx, OrderStatusChanged, o)
}

// publish keys messages by order number so every event of one order lands
// on the same partition.
func (p *Producer) publish(ctx context.Context, eventType string, o models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Event{EventType: eventType, OccurredAt: p.now().UTC(), Order: o})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(o.OrderNumber),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send %s for %s: %w", eventType, o.OrderNumber, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
