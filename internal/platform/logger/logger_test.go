package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/capsule-api/internal/config"
)

func TestSetupLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "debug level", logLevel: "debug"},
		{name: "info level", logLevel: "info"},
		{name: "warn level", logLevel: "warn"},
		{name: "error level", logLevel: "error"},
		{name: "mixed case", logLevel: "InFo"},
		{name: "invalid level falls back to info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: tt.logLevel})
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	buf, testLogger := SetupTestLogger(t, nil)

	ctx := context.Background()

	// Empty context yields no logger.
	_, ok := FromContext(ctx)
	assert.False(t, ok)

	// FromContextOrDefault falls back to the provided default.
	fallback := FromContextOrDefault(ctx, testLogger)
	assert.Same(t, testLogger, fallback)

	// With no default either, it returns the process default.
	assert.NotNil(t, FromContextOrDefault(ctx, nil))

	// A stored logger round-trips.
	scoped := testLogger.With(slog.String("trace_id", "abc123"))
	ctx = WithLogger(ctx, scoped)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, scoped, got)

	got.Info("request handled")
	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0]["trace_id"])
	assert.Equal(t, "request handled", entries[0]["msg"])
}
