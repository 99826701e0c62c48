// Command notifications-tail prints the storefront notifications mirrored to Kafka.
//
// It reads the same KAFKA_* variables as the storefront (KAFKA_BROKERS, KAFKA_TOPIC)
// and joins the consumer group given by KAFKA_GROUP_ID (default "notifications-tail").
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/event/kafka"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/presentation"
	platformkafka "github.com/shestoi/iapdemo/platform/kafka"
	platformlogging "github.com/shestoi/iapdemo/platform/logging"
	"github.com/shestoi/iapdemo/platform/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "notifications-tail",
		Env:         "local",
		Level:       "info",
		Format:      "console",
	})
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer platformlogging.Sync(logger)

	cfg := platformkafka.DefaultConfig()
	if err := platformkafka.LoadEnv(&cfg); err != nil {
		logger.Error("failed to load kafka config", zap.Error(err))
		os.Exit(1)
	}

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "notifications-tail"
	}

	logger.Info("kafka config loaded",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", groupID),
	)

	consumer := kafka.NewNotificationConsumer(logger, cfg, groupID)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	err = consumer.Start(ctx, func(ctx context.Context, e notify.Event) {
		observability.L(ctx, logger).Info(presentation.Describe(e, nil),
			zap.String("kind", string(e.Kind)),
			zap.String("status", e.Status),
			zap.String("transaction_id", e.TransactionID),
			zap.Time("occurred_at", e.OccurredAt),
		)
	})
	if err != nil {
		logger.Error("consumer stopped", zap.Error(err))
		os.Exit(1)
	}
}
