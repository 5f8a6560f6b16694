package mylog

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForwardToTelegram(t *testing.T) {
	info := slog.NewRecord(time.Now(), slog.LevelInfo, "plain", 0)
	assert.False(t, forwardToTelegram(context.Background(), info))

	tagged := slog.NewRecord(time.Now(), slog.LevelInfo, "unlock", 0)
	tagged.AddAttrs(slog.Bool(TelegramKey, true))
	assert.True(t, forwardToTelegram(context.Background(), tagged))

	failed := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	assert.True(t, forwardToTelegram(context.Background(), failed))
}
