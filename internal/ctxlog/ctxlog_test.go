package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("graph loaded", "vnodes", 7)

	if !strings.Contains(buf.String(), "vnodes=7") {
		t.Errorf("log output %q missing attribute", buf.String())
	}
}

func TestFromContextWithoutLoggerDiscards(t *testing.T) {
	got := FromContext(context.Background())
	if got != Discard() {
		t.Fatal("expected the discard logger")
	}
	if got.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled at any level")
	}
}

func TestFromContextNilLogger(t *testing.T) {
	ctx := WithLogger(context.Background(), nil)
	if FromContext(ctx) != Discard() {
		t.Error("nil logger in context should fall back to discard")
	}
}
