package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		level := level // per-iteration copy (go 1.21 loop semantics)
		t.Run(level, func(t *testing.T) {
			logger, err := New(Config{Level: level, OutputPaths: []string{"stderr"}})
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestTaskFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.Component("sensor").Task("sensor1", "task_01").Info("published", Tick(42))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sensor", fields["component"])
	assert.Equal(t, "sensor1", fields["task"])
	assert.Equal(t, "task_01", fields["task_id"])
	assert.Equal(t, uint64(42), fields["tick"])
}

func TestWrapNil(t *testing.T) {
	logger := Wrap(nil)
	require.NotNil(t, logger)
	logger.Info("discarded")
}
