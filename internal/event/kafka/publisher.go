package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/notify"
	platformkafka "github.com/shestoi/iapdemo/platform/kafka"
	"github.com/shestoi/iapdemo/platform/observability"
)

const (
	eventType    = "storefront.notification"
	eventVersion = 1
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationPublisher mirrors storefront notifications to a Kafka topic.
// Messages are keyed by product id so the events of one product stay ordered.
type NotificationPublisher struct {
	logger *zap.Logger
	writer messageWriter
	topic  string
}

// NewNotificationPublisher creates an asynchronous writer; delivery errors are logged
// from the writer's completion callback.
func NewNotificationPublisher(logger *zap.Logger, cfg platformkafka.Config) *NotificationPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver notifications to kafka",
					zap.Error(err),
					zap.String("topic", cfg.Topic),
					zap.Int("messages", len(messages)),
				)
			}
		},
	}
	return newNotificationPublisher(logger, writer, cfg.Topic)
}

func newNotificationPublisher(logger *zap.Logger, writer messageWriter, topic string) *NotificationPublisher {
	return &NotificationPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

type envelope struct {
	EventType    string       `json:"event_type"`
	EventVersion int          `json:"event_version"`
	Notification notify.Event `json:"notification"`
}

// Handle is a notify.Handler; subscribe it to the hub.
func (p *NotificationPublisher) Handle(ctx context.Context, e notify.Event) {
	if err := p.Publish(ctx, e); err != nil {
		observability.L(ctx, p.logger).Error("failed to publish notification",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("kind", string(e.Kind)),
		)
	}
}

// Publish writes e as JSON. Trace context travels in the message headers.
func (p *NotificationPublisher) Publish(ctx context.Context, e notify.Event) error {
	value, err := json.Marshal(envelope{
		EventType:    eventType,
		EventVersion: eventVersion,
		Notification: e,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := e.ProductID
	if key == "" {
		key = e.ID
	}

	headers := []kafka.Header{{Key: "kind", Value: []byte(e.Kind)}}
	observability.InjectKafka(ctx, &headers)

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	p.logger.Debug("notification sent to kafka",
		zap.String("topic", p.topic),
		zap.String("kind", string(e.Kind)),
		zap.String("id", e.ID),
	)
	return nil
}

func (p *NotificationPublisher) Close() error {
	return p.writer.Close()
}
