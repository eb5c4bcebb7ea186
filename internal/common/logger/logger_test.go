package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(zap.NewNop()) })

	lg := New("notification-service")
	lg.Info("message_consumed", map[string]any{"order_id": 7})
	lg.Error("send_failed", errors.New("smtp down"), nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "notification-service", first["service"])
	assert.Equal(t, "message_consumed", first["action"])
	assert.EqualValues(t, 7, first["order_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "smtp down", entries[1].ContextMap()["error"])
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	assert.Error(t, Initialize("loud", "production"))
}
