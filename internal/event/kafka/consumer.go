package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/notify"
	platformkafka "github.com/shestoi/iapdemo/platform/kafka"
	"github.com/shestoi/iapdemo/platform/observability"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationConsumer reads notifications written by NotificationPublisher.
type NotificationConsumer struct {
	logger *zap.Logger
	reader messageReader
	topic  string
}

func NewNotificationConsumer(logger *zap.Logger, cfg platformkafka.Config, groupID string) *NotificationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  groupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newNotificationConsumer(logger, reader, cfg.Topic)
}

func newNotificationConsumer(logger *zap.Logger, reader messageReader, topic string) *NotificationConsumer {
	return &NotificationConsumer{
		logger: logger,
		reader: reader,
		topic:  topic,
	}
}

// Start hands every notification to handle until ctx is cancelled.
// Offsets are committed after handle returns; undecodable messages are logged and committed.
func (c *NotificationConsumer) Start(ctx context.Context, handle notify.Handler) error {
	c.logger.Info("starting notification consumer", zap.String("topic", c.topic))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			continue
		}

		msgCtx := observability.ExtractKafka(ctx, m.Headers)
		e, err := decode(m)
		if err != nil {
			observability.L(msgCtx, c.logger).Error("skipping undecodable notification",
				zap.Error(err),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		} else {
			handle(msgCtx, e)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

func (c *NotificationConsumer) Close() error {
	return c.reader.Close()
}

func decode(m kafka.Message) (notify.Event, error) {
	var env envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return notify.Event{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	if env.EventType != eventType {
		return notify.Event{}, fmt.Errorf("unexpected event type %q", env.EventType)
	}
	if env.EventVersion != eventVersion {
		return notify.Event{}, fmt.Errorf("unsupported event version %d", env.EventVersion)
	}
	return env.Notification, nil
}
