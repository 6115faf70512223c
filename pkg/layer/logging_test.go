package layer_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/objectfs/objectfs/internal/backend/memory"
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/layer"
)

func TestLoggingLayerLogsCompletedAndFailedCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	acc := layer.NewLoggingLayer(logger).Layer(memory.New("/"))
	ctx := context.Background()

	if _, err := acc.Write(ctx, "f.txt", access.OpWrite{}, access.NewBytesReader([]byte("x"))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := acc.Stat(ctx, "missing.txt", access.OpStat{}); err == nil {
		t.Fatal("expected an error for a missing object")
	}

	out := buf.String()
	if !strings.Contains(out, "operation completed") || !strings.Contains(out, "operation=Write") {
		t.Errorf("expected a completed-Write log line, got %q", out)
	}
	if !strings.Contains(out, "operation failed") || !strings.Contains(out, "operation=Stat") {
		t.Errorf("expected a failed-Stat log line, got %q", out)
	}
}

func TestNewLoggingLayerDefaultsToSlogDefault(t *testing.T) {
	acc := layer.NewLoggingLayer(nil).Layer(memory.New("/"))
	ctx := context.Background()

	if _, err := acc.Stat(ctx, "missing.txt", access.OpStat{}); err == nil {
		t.Fatal("expected an error for a missing object")
	}
}
