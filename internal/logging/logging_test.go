package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.Len(t, entries(t, &buf), 1)

	buf.Reset()
	logger = New(&buf, "verbose")
	logger.Debug("hidden")
	logger.Info("shown")
	assert.Len(t, entries(t, &buf), 1)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	assert.Equal(t, logger, FromContext(WithLogger(context.Background(), logger)))
}

func TestSpansShareRequestTrace(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")

	ctx, outer := StartSpan(ctx, "outer")
	_, inner := StartSpan(ctx, "inner", slog.Int64("postId", 7))
	inner.RecordError(errors.New("boom"))
	inner.End()
	outer.End()

	logged := entries(t, &buf)
	require.Len(t, logged, 2)

	innerEntry, outerEntry := logged[0], logged[1]
	assert.Equal(t, "span failed", innerEntry["msg"])
	assert.Equal(t, "WARN", innerEntry["level"])
	assert.Equal(t, "boom", innerEntry["error"])
	assert.EqualValues(t, 7, innerEntry["postId"])
	assert.Equal(t, "req-1", innerEntry["trace_id"])
	assert.Equal(t, "user-1", innerEntry["user_id"])
	assert.Equal(t, outerEntry["span_id"], innerEntry["parent_span_id"])

	assert.Equal(t, "span completed", outerEntry["msg"])
	assert.NotContains(t, outerEntry, "parent_span_id")
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *Span
	span.RecordError(errors.New("ignored"))
	span.End()
}
