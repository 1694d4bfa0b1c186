package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		assert.Len(t, id, 10)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)
}

func TestRequestContext_RoundTrip(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "abc123defg", "/op")
	assert.Equal(t, "abc123defg", GetRequestID(ctx))
	assert.Equal(t, "/op", GetRequestContext(ctx).Operation)

	SetMetadata(ctx, "job_id", "j-9")
	v, ok := GetMetadata(ctx, "job_id")
	assert.True(t, ok)
	assert.Equal(t, "j-9", v)
	assert.GreaterOrEqual(t, GetElapsedTime(ctx), int64(0))
}

func TestGetRequestContext_Missing(t *testing.T) {
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, "unknown", GetRequestID(nil))
	assert.Equal(t, int64(0), GetElapsedTime(context.Background()))
}
