package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger() (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(buf, nil))), buf
}

func TestSlogLogger_WritesMessageAndAttrs(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger()
	logger.Info(context.Background(), "attempt recorded", "principal_id", "u1")

	out := buf.String()
	if !strings.Contains(out, "attempt recorded") {
		t.Fatalf("message missing from output: %s", out)
	}
	if !strings.Contains(out, `"principal_id":"u1"`) {
		t.Fatalf("attribute missing from output: %s", out)
	}
}

func TestSlogLogger_WithAddsContext(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger()
	child := logger.With("component", "limiter")
	child.Warn(context.Background(), "lockout triggered")

	out := buf.String()
	if !strings.Contains(out, `"component":"limiter"`) {
		t.Fatalf("With attribute missing from output: %s", out)
	}
}
