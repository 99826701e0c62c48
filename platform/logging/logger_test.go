package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONAddsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{ServiceName: "storefront", Env: "docker", Output: &buf})
	require.NoError(t, err)

	logger.Info("hello")
	Sync(logger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "storefront", entry["service"])
	assert.Equal(t, "docker", entry["env"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{ServiceName: "storefront", Env: "docker", Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_InvalidSettings(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
