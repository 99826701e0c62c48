package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metricsRecorder counts catalog and purchase outcomes. It serves both
// catalog.MetricsRecorder and purchase.MetricsRecorder.
type metricsRecorder struct {
	productRequests metric.Int64Counter
	purchaseEvents  metric.Int64Counter
	duplicates      metric.Int64Counter
}

func newMetricsRecorder(meter metric.Meter) (*metricsRecorder, error) {
	productRequests, err := meter.Int64Counter("product_requests_total",
		metric.WithDescription("Completed product requests by resulting status"))
	if err != nil {
		return nil, fmt.Errorf("product_requests_total: %w", err)
	}
	purchaseEvents, err := meter.Int64Counter("purchase_events_total",
		metric.WithDescription("Processed transaction updates by resulting status"))
	if err != nil {
		return nil, fmt.Errorf("purchase_events_total: %w", err)
	}
	duplicates, err := meter.Int64Counter("duplicate_transactions_total",
		metric.WithDescription("Redelivered transactions that were already finished"))
	if err != nil {
		return nil, fmt.Errorf("duplicate_transactions_total: %w", err)
	}

	return &metricsRecorder{
		productRequests: productRequests,
		purchaseEvents:  purchaseEvents,
		duplicates:      duplicates,
	}, nil
}

func (r *metricsRecorder) RecordProductRequest(ctx context.Context, status string) {
	r.productRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (r *metricsRecorder) RecordPurchaseEvent(ctx context.Context, status string) {
	r.purchaseEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (r *metricsRecorder) RecordDuplicateTransaction(ctx context.Context) {
	r.duplicates.Add(ctx, 1)
}
