package kafka

import (
	"testing"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, load(&cfg, env.Options{Environment: map[string]string{}}))

	assert.False(t, cfg.Enabled)
	assert.Equal(t, []string{"localhost:19092"}, cfg.Brokers)
	assert.Equal(t, "storefront.notifications", cfg.Topic)
	assert.Equal(t, "storefront", cfg.ClientID)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	err := load(&cfg, env.Options{Environment: map[string]string{
		"KAFKA_ENABLED": "true",
		"KAFKA_BROKERS": "kafka-1:9092,kafka-2:9092",
		"KAFKA_TOPIC":   "iap.events",
	}})
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, "iap.events", cfg.Topic)
}

func TestLoad_EnabledWithoutBrokers(t *testing.T) {
	cfg := Config{}
	err := load(&cfg, env.Options{Environment: map[string]string{"KAFKA_ENABLED": "true"}})
	assert.Error(t, err)
}
