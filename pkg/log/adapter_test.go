package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"SearchLane/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileAdapter(t *testing.T) (log.Logger, func() string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "adapter.log")
	zapLog, err := NewZapLogger(&conf.Log{Level: "debug", Format: "json", Env: "production", OutputFile: logFile})
	require.NoError(t, err)

	read := func() string {
		_ = zapLog.Sync()
		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		return string(content)
	}
	return NewKratosAdapter(zapLog), read
}

func TestKratosAdapter_EmptyKeyvals(t *testing.T) {
	adapter, _ := newFileAdapter(t)
	assert.NoError(t, adapter.Log(log.LevelInfo))
}

func TestKratosAdapter_MessageAndFields(t *testing.T) {
	adapter, read := newFileAdapter(t)

	helper := log.NewHelper(adapter)
	helper.Infow("msg", "search job submitted", "job_id", "j-1", "results_count", 3)

	content := read()
	assert.Contains(t, content, `"msg":"search job submitted"`)
	assert.Contains(t, content, `"job_id":"j-1"`)
	assert.Contains(t, content, `"results_count":3`)
}

func TestKratosAdapter_SanitizesTokens(t *testing.T) {
	adapter, read := newFileAdapter(t)

	require.NoError(t, adapter.Log(log.LevelWarn,
		"msg", "invalid service token",
		"service_token", "supersecrettoken",
	))

	content := read()
	assert.Contains(t, content, `"service_token":"supe********oken"`)
	assert.NotContains(t, content, "supersecrettoken")
}

func TestKratosAdapter_ErrorValue(t *testing.T) {
	adapter, read := newFileAdapter(t)

	require.NoError(t, adapter.Log(log.LevelError, "msg", "update failed", "error", errors.New("deadlock")))
	assert.Contains(t, read(), `"error":"deadlock"`)
}

func TestKratosAdapter_UnpairedKey(t *testing.T) {
	adapter, read := newFileAdapter(t)

	require.NoError(t, adapter.Log(log.LevelInfo, "msg", "odd", "dangling"))
	assert.Contains(t, read(), `"dangling":"KEYVALS_UNPAIRED"`)
}
