package telemetry

import (
	"context"
	"testing"

	"goa.design/clue/log"
)

// TestClueLoggerDoesNotPanic exercises every Logger method against a
// clue-configured context, the way cmd/refactcore wires it (log.Context +
// log.WithFormat), matching the teacher's example/cmd/assistant/main.go
// setup pattern.
func TestClueLoggerDoesNotPanic(t *testing.T) {
	ctx := log.Context(context.Background(), log.WithFormat(log.FormatJSON))
	var l Logger = NewClueLogger()

	l.Debug(ctx, "debug message", "key", "value")
	l.Info(ctx, "info message", "count", 3)
	l.Warn(ctx, "warn message")
	l.Error(ctx, "error message", "err", "boom")
}

func TestClueLoggerToleratesOddKeyvals(t *testing.T) {
	ctx := log.Context(context.Background(), log.WithFormat(log.FormatJSON))
	l := NewClueLogger()
	l.Info(ctx, "dangling key", "only-key")
}
