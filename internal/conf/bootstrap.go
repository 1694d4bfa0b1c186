// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewGatewayBootstrap loads the api-gateway configuration.
//
// Configuration priority: Environment variables > Config file > Defaults
//
// Required:
//   - SEARCH_SERVICE_TOKEN or SEARCHLANE_AUTH_SERVICE_TOKEN
//   - SEARCH_SERVICE_URL or SEARCHLANE_SEARCH_ENDPOINT (defaults to http://localhost:5001)
func NewGatewayBootstrap(configPath string) (*Bootstrap, error) {
	v, err := load(configPath, ":8000", "api-gateway")
	if err != nil {
		return nil, err
	}

	bc := &Bootstrap{
		Server: readServer(v),
		Auth:   readAuth(v),
		Search: &SearchService{
			Endpoint:      strings.TrimRight(v.GetString("search.endpoint"), "/"),
			Timeout:       durationpb.New(v.GetDuration("search.timeout")),
			HealthTimeout: durationpb.New(v.GetDuration("search.health_timeout")),
			ProxyUrl:      v.GetString("search.proxy_url"),
		},
		Breaker: &Breaker{
			Name:             v.GetString("breaker.name"),
			FailureThreshold: v.GetInt32("breaker.failure_threshold"),
			RecoveryTimeout:  durationpb.New(v.GetDuration("breaker.recovery_timeout")),
			HalfOpenMaxCalls: v.GetInt32("breaker.half_open_max_calls"),
		},
		Probe: &HealthProbe{
			Enabled: v.GetBool("probe.enabled"),
			Spec:    v.GetString("probe.spec"),
		},
		Log: readLog(v),
	}

	if err := ValidateGateway(bc); err != nil {
		return nil, err
	}
	return bc, nil
}

// NewSearchBootstrap loads the search-microservice configuration.
//
// Required:
//   - MYSQL_DSN or SEARCHLANE_DATA_DATABASE_SOURCE
//   - SEARCH_SERVICE_TOKEN or SEARCHLANE_AUTH_SERVICE_TOKEN
func NewSearchBootstrap(configPath string) (*Bootstrap, error) {
	v, err := load(configPath, ":5001", "search-microservice")
	if err != nil {
		return nil, err
	}

	bc := &Bootstrap{
		Server: readServer(v),
		Auth:   readAuth(v),
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
				JobTtl:       durationpb.New(v.GetDuration("data.redis.job_ttl")),
			},
			LocalCache: &Data_LocalCache{
				Size: v.GetInt32("data.local_cache.size"),
			},
		},
		Log: readLog(v),
	}

	if err := ValidateSearch(bc); err != nil {
		return nil, err
	}
	return bc, nil
}

func load(configPath, defaultAddr, service string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)
	v.SetDefault("server.http.addr", defaultAddr)
	v.SetDefault("log.service", service)

	v.SetEnvPrefix("SEARCHLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容部署环境中已有的变量名
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "SEARCHLANE_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "SEARCHLANE_DATA_REDIS_ADDR")
	_ = v.BindEnv("auth.service_token", "SEARCH_SERVICE_TOKEN", "SEARCHLANE_AUTH_SERVICE_TOKEN")
	_ = v.BindEnv("search.endpoint", "SEARCH_SERVICE_URL", "SEARCHLANE_SEARCH_ENDPOINT")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}
	return v, nil
}

func readServer(v *viper.Viper) *Server {
	return &Server{
		Http: &Server_HTTP{
			Network: v.GetString("server.http.network"),
			Addr:    v.GetString("server.http.addr"),
			Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
		},
	}
}

func readAuth(v *viper.Viper) *Auth {
	return &Auth{ServiceToken: v.GetString("auth.service_token")}
}

func readLog(v *viper.Viper) *Log {
	return &Log{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		Env:        v.GetString("log.env"),
		OutputFile: v.GetString("log.output_file"),
		Service:    v.GetString("log.service"),
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.timeout", 60*time.Second)

	v.SetDefault("data.database.driver", "mysql")
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.job_ttl", 10*time.Minute)
	v.SetDefault("data.local_cache.size", 1024)

	v.SetDefault("search.endpoint", "http://localhost:5001")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.health_timeout", 5*time.Second)

	v.SetDefault("breaker.name", "search_service")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout", 30*time.Second)
	v.SetDefault("breaker.half_open_max_calls", 3)

	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.spec", "@every 30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// ValidateGateway checks the fields the api-gateway cannot run without.
// It returns an error listing all missing required fields.
func ValidateGateway(bc *Bootstrap) error {
	var missingFields []string

	if bc == nil || bc.Auth == nil || bc.Auth.ServiceToken == "" {
		missingFields = append(missingFields, "auth.service_token (SEARCH_SERVICE_TOKEN)")
	}
	if bc == nil || bc.Search == nil || bc.Search.Endpoint == "" {
		missingFields = append(missingFields, "search.endpoint (SEARCH_SERVICE_URL)")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	if bc.Breaker != nil {
		if bc.Breaker.FailureThreshold <= 0 {
			return fmt.Errorf("breaker.failure_threshold must be positive, got %d", bc.Breaker.FailureThreshold)
		}
		if bc.Breaker.HalfOpenMaxCalls <= 0 {
			return fmt.Errorf("breaker.half_open_max_calls must be positive, got %d", bc.Breaker.HalfOpenMaxCalls)
		}
	}
	return nil
}

// ValidateSearch checks the fields the search-microservice cannot run without.
func ValidateSearch(bc *Bootstrap) error {
	var missingFields []string

	if bc == nil || bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}
	if bc == nil || bc.Auth == nil || bc.Auth.ServiceToken == "" {
		missingFields = append(missingFields, "auth.service_token (SEARCH_SERVICE_TOKEN)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}
	return nil
}
