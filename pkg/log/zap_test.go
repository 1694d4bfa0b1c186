package log

import (
	"os"
	"path/filepath"
	"testing"

	"SearchLane/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewZapLogger_NilConfig(t *testing.T) {
	_, err := NewZapLogger(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log config is nil")
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapLogger(&conf.Log{Level: "loud", Format: "json"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewZapLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "search.log")
	cfg := &conf.Log{
		Level:      "info",
		Format:     "json",
		Env:        "production",
		OutputFile: logFile,
		Service:    "search-microservice",
	}

	logger, err := NewZapLogger(cfg)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("job completed", zap.String("job_id", "abc"))
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"job completed"`)
	assert.Contains(t, string(content), `"service":"search-microservice"`)
	assert.Contains(t, string(content), `"job_id":"abc"`)
	assert.NotContains(t, string(content), "hidden")
}

func TestNewZapLogger_ConsoleFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gateway.log")
	logger, err := NewZapLogger(&conf.Log{
		Level:      "debug",
		Format:     "console",
		OutputFile: logFile,
	})
	require.NoError(t, err)

	logger.Info("circuit opened", zap.String("type", "breaker"))
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "⚡ circuit opened")
	assert.Contains(t, string(content), "searchlane")
}
