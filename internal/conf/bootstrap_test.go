package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestNewGatewayBootstrap_Defaults(t *testing.T) {
	t.Setenv("SEARCH_SERVICE_TOKEN", "gateway-token")

	bc, err := NewGatewayBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", bc.Server.Http.Addr)
	assert.Equal(t, "tcp", bc.Server.Http.Network)
	assert.Equal(t, "http://localhost:5001", bc.Search.Endpoint)
	assert.Equal(t, 30*time.Second, bc.Search.Timeout.AsDuration())
	assert.Equal(t, 5*time.Second, bc.Search.HealthTimeout.AsDuration())

	assert.Equal(t, "search_service", bc.Breaker.Name)
	assert.Equal(t, int32(5), bc.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, bc.Breaker.RecoveryTimeout.AsDuration())
	assert.Equal(t, int32(3), bc.Breaker.HalfOpenMaxCalls)

	assert.True(t, bc.Probe.Enabled)
	assert.Equal(t, "@every 30s", bc.Probe.Spec)
	assert.Equal(t, "api-gateway", bc.Log.Service)
	assert.Equal(t, "gateway-token", bc.Auth.ServiceToken)
	assert.Nil(t, bc.Data)
}

func TestNewGatewayBootstrap_FileAndEnv(t *testing.T) {
	configPath := writeConfig(t, `server:
  http:
    addr: :18000
search:
  endpoint: http://search:5001/
  proxy_url: socks5://127.0.0.1:1080
breaker:
  failure_threshold: 3
  recovery_timeout: 10s
auth:
  service_token: from-file
`)
	t.Setenv("SEARCHLANE_AUTH_SERVICE_TOKEN", "from-env")

	bc, err := NewGatewayBootstrap(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":18000", bc.Server.Http.Addr)
	// 末尾的 / 会被去掉
	assert.Equal(t, "http://search:5001", bc.Search.Endpoint)
	assert.Equal(t, "socks5://127.0.0.1:1080", bc.Search.ProxyUrl)
	assert.Equal(t, int32(3), bc.Breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, bc.Breaker.RecoveryTimeout.AsDuration())
	assert.Equal(t, "from-env", bc.Auth.ServiceToken)
}

func TestNewGatewayBootstrap_MissingToken(t *testing.T) {
	t.Setenv("SEARCH_SERVICE_TOKEN", "")
	_, err := NewGatewayBootstrap("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.service_token")
}

func TestNewGatewayBootstrap_InvalidBreaker(t *testing.T) {
	configPath := writeConfig(t, `breaker:
  failure_threshold: 0
`)
	t.Setenv("SEARCH_SERVICE_TOKEN", "token")

	_, err := NewGatewayBootstrap(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breaker.failure_threshold")
}

func TestNewSearchBootstrap_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/search")
	t.Setenv("SEARCH_SERVICE_TOKEN", "search-token")

	bc, err := NewSearchBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":5001", bc.Server.Http.Addr)
	assert.Equal(t, "mysql", bc.Data.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/search", bc.Data.Database.Source)
	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())
	assert.Equal(t, 10*time.Minute, bc.Data.Redis.JobTtl.AsDuration())
	assert.Equal(t, int32(1024), bc.Data.LocalCache.Size)
	assert.Equal(t, "search-microservice", bc.Log.Service)
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
	assert.Nil(t, bc.Breaker)
}

func TestNewSearchBootstrap_MissingRequired(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("SEARCH_SERVICE_TOKEN", "")
	_, err := NewSearchBootstrap("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.database.source (MYSQL_DSN)")
	assert.Contains(t, err.Error(), "auth.service_token (SEARCH_SERVICE_TOKEN)")
}

func TestNewSearchBootstrap_ConfigFileNotFound(t *testing.T) {
	_, err := NewSearchBootstrap(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate_NilBootstrap(t *testing.T) {
	assert.Error(t, ValidateGateway(nil))
	assert.Error(t, ValidateSearch(nil))
}
