package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	recorder, err := newMetricsRecorder(provider.Meter("storefront"))
	require.NoError(t, err)

	ctx := context.Background()
	recorder.RecordProductRequest(ctx, "Found")
	recorder.RecordProductRequest(ctx, "Found")
	recorder.RecordProductRequest(ctx, "MixedResponse")
	recorder.RecordPurchaseEvent(ctx, "Succeeded")
	recorder.RecordDuplicateTransaction(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}

	require.Contains(t, sums, "product_requests_total")
	byStatus := map[string]int64{}
	for _, dp := range sums["product_requests_total"].DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		byStatus[status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"Found": 2, "MixedResponse": 1}, byStatus)

	require.Contains(t, sums, "purchase_events_total")
	require.Len(t, sums["purchase_events_total"].DataPoints, 1)
	assert.Equal(t, int64(1), sums["purchase_events_total"].DataPoints[0].Value)

	require.Contains(t, sums, "duplicate_transactions_total")
	assert.Equal(t, int64(1), sums["duplicate_transactions_total"].DataPoints[0].Value)
}
