package log

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEntry struct {
	level  log.Level
	fields map[string]interface{}
}

// captureLogger records every entry passed to it.
type captureLogger struct {
	mu      sync.Mutex
	entries []capturedEntry
}

func (c *captureLogger) Log(level log.Level, keyvals ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	c.entries = append(c.entries, capturedEntry{level: level, fields: fields})
	return nil
}

func (c *captureLogger) last(t *testing.T) capturedEntry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.entries)
	return c.entries[len(c.entries)-1]
}

func TestLogHelper_Breaker(t *testing.T) {
	capture := &captureLogger{}
	h := NewLogHelper(capture)

	h.Breaker("search_service", "closed", "open", "failure_count", 5)
	entry := capture.last(t)
	assert.Equal(t, log.LevelWarn, entry.level)
	assert.Equal(t, "breaker", entry.fields["type"])
	assert.Equal(t, "Circuit breaker search_service: closed -> open", entry.fields["msg"])
	assert.Equal(t, 5, entry.fields["failure_count"])

	h.Breaker("search_service", "half_open", "closed")
	assert.Equal(t, log.LevelInfo, capture.last(t).level)
}

func TestLogHelper_Job(t *testing.T) {
	capture := &captureLogger{}
	h := NewLogHelper(capture)

	ctx := WithRequestContext(context.Background(), "req0000001", "/search/SubmitJob")
	h.Job(ctx, "search job completed", "job-1", "completed", "results_count", 2)

	entry := capture.last(t)
	assert.Equal(t, "[req0000001] search job completed", entry.fields["msg"])
	assert.Equal(t, "job-1", entry.fields["job_id"])
	assert.Equal(t, "completed", entry.fields["job_status"])
	assert.Equal(t, "job", entry.fields["type"])
}

func TestLogHelper_Probe(t *testing.T) {
	capture := &captureLogger{}
	h := NewLogHelper(capture)

	h.Probe("search_microservice", false)
	entry := capture.last(t)
	assert.Equal(t, log.LevelWarn, entry.level)
	assert.Equal(t, false, entry.fields["healthy"])
}

func TestLogHelper_RequestWithContext_Slow(t *testing.T) {
	capture := &captureLogger{}
	h := NewLogHelper(capture)

	ctx := WithRequestContext(context.Background(), "req0000002", "")
	h.RequestWithContext(ctx, "POST", "/api/v1/search/jobs", 200, 1500, 1000)

	require.Len(t, capture.entries, 2)
	assert.Equal(t, "request", capture.entries[0].fields["type"])
	assert.Equal(t, "slow_request", capture.entries[1].fields["type"])
	assert.Equal(t, log.LevelWarn, capture.entries[1].level)
}

func TestLogHelper_RequestWithContext_ServerError(t *testing.T) {
	capture := &captureLogger{}
	h := NewLogHelper(capture)

	h.RequestWithContext(context.Background(), "GET", "/health", 503, 3, 1000)
	require.Len(t, capture.entries, 1)
	assert.Equal(t, log.LevelError, capture.entries[0].level)
	assert.Equal(t, "unknown", capture.entries[0].fields["request_id"])
}
