package conf

import (
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration shared by the gateway and the search service.
// Each binary only fills the sections it needs; see NewGatewayBootstrap and NewSearchBootstrap.
type Bootstrap struct {
	Server  *Server
	Data    *Data
	Auth    *Auth
	Search  *SearchService
	Breaker *Breaker
	Probe   *HealthProbe
	Log     *Log
}

type Server struct {
	Http *Server_HTTP
}

type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

type Data struct {
	Database   *Data_Database
	Redis      *Data_Redis
	LocalCache *Data_LocalCache
}

type Data_Database struct {
	Driver string
	Source string
}

type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
	// JobTtl 终态任务视图的缓存时间
	JobTtl *durationpb.Duration
}

// Data_LocalCache 进程内 LRU，位于 Redis 之前
type Data_LocalCache struct {
	Size int32
}

// Auth holds the service-to-service credential.
// The search service validates it, the gateway attaches it to every call.
type Auth struct {
	ServiceToken string
}

// SearchService configures the gateway's client for the search microservice.
type SearchService struct {
	Endpoint      string
	Timeout       *durationpb.Duration
	HealthTimeout *durationpb.Duration
	// ProxyUrl 可选，支持 socks5:// 与 http(s)://
	ProxyUrl string
}

// Breaker configures the circuit breaker guarding the search service.
type Breaker struct {
	Name             string
	FailureThreshold int32
	RecoveryTimeout  *durationpb.Duration
	HalfOpenMaxCalls int32
}

// HealthProbe configures the gateway's periodic dependency probe.
type HealthProbe struct {
	Enabled bool
	// Spec is a robfig/cron spec, e.g. "@every 30s".
	Spec string
}

type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
	Service    string
}
