// Package main is the entry point of the api-gateway.
// It fronts the search microservice through a circuit-breaker-guarded client.
package main

import (
	"context"
	"flag"
	"os"

	"SearchLane/internal/conf"
	zapLogger "SearchLane/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/robfig/cron/v3"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "api-gateway"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/gateway.yaml", "config path, eg: -conf gateway.yaml")
}

func newApp(logger log.Logger, hs *http.Server, probe *cron.Cron) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
		kratos.AfterStart(func(context.Context) error {
			if probe != nil {
				probe.Start()
			}
			return nil
		}),
		kratos.BeforeStop(func(context.Context) error {
			if probe != nil {
				<-probe.Stop().Done()
			}
			return nil
		}),
	)
}

func main() {
	flag.Parse()

	bc, err := conf.NewGatewayBootstrap(flagconf)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLog.Sync()

	logger := zapLogger.NewKratosAdapter(zapLog)
	logger = log.With(logger,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)

	zapLogger.NewLogHelper(logger).Startup("api-gateway starting",
		"http.addr", bc.Server.Http.Addr,
		"search.endpoint", bc.Search.Endpoint,
		"breaker.failure_threshold", bc.Breaker.FailureThreshold,
		"breaker.recovery_timeout", bc.Breaker.RecoveryTimeout.AsDuration().String(),
		"probe.spec", bc.Probe.Spec,
		"log.level", bc.Log.Level,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Search, bc.Auth, bc.Breaker, bc.Probe, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
