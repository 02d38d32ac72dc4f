package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRedactsCredentialKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromCore(core).With("component", "storage")

	log.Warn("open failed", "dsn", "postgres://u:p@h/db", "driver", "postgres")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["dsn"])
	assert.Equal(t, "postgres", fields["driver"])
	assert.Equal(t, "storage", fields["component"])
}

func TestLoggerKeepsDanglingValue(t *testing.T) {
	out := sanitizeKVs([]interface{}{"key", 1, "orphan"})
	assert.Equal(t, []interface{}{"key", 1, "orphan"}, out)
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		l.Debug("hello")
	}
	NewNop().Info("discarded")
}
