// Command contact-discovery consumes email, calendar, document, and todo
// events, extracts person-entities, maintains the contacts table, and
// republishes a ContactEvent per contact touched (§4.F).
//
// Dependencies:
//   - Postgres: contacts
//   - NATS: consumes and publishes INGEST_EVENTS.<topic>
//   - Redis: idempotency key storage
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/ingest-fabric/internal/config"
	"github.com/arc-self/ingest-fabric/internal/contactdiscovery"
	"github.com/arc-self/ingest-fabric/internal/middleware"
	"github.com/arc-self/ingest-fabric/internal/natsclient"
	"github.com/arc-self/ingest-fabric/internal/telemetry"
	"github.com/arc-self/ingest-fabric/pkg/adapters"
	"github.com/arc-self/ingest-fabric/pkg/consumer"
	"github.com/arc-self/ingest-fabric/pkg/idempotency"
)

const serviceName = "contact_discovery"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.FromEnv()

	if cfg.OTLPEndpoint != "" {
		tp, err := telemetry.InitTracerProvider(context.Background(), serviceName, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("OTel tracer init failed", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}

		mp, err := telemetry.InitMeterProvider(context.Background(), serviceName, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("OTel meter init failed", zap.Error(err))
		} else {
			defer mp.Shutdown(context.Background())
		}
	}

	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		loadSecretOverrides(&cfg, logger)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("bad POSTGRES_DSN", zap.Error(err))
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("Postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	contactStore := adapters.NewPostgresContactStore(pool)

	natsClient, err := natsclient.NewClient(cfg.NATSURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer natsClient.Close()

	if err := natsClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idemStore := adapters.NewRedisIdempotencyStore(redisClient)
	kernel := idempotency.New(idemStore, logger)

	discoveryService := contactdiscovery.New(contactStore, natsClient, logger)

	runtime := consumer.New(serviceName, natsClient, kernel, logger)
	for _, topic := range []string{
		"emails", "calendars", "word_documents", "sheet_documents",
		"presentation_documents", "task_documents", "todos",
	} {
		runtime.RegisterTopic(topic, discoveryService.Process)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := runtime.Start(ctx); err != nil {
		logger.Fatal("consumer runtime start failed", zap.Error(err))
	}

	e := newHealthServer(serviceName, runtime)
	go func() {
		logger.Info("contact-discovery listening", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()

	waitForShutdown(logger, func() {
		runtime.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("echo shutdown error", zap.Error(err))
		}
	})
}

func loadSecretOverrides(cfg *config.ServiceConfig, logger *zap.Logger) {
	mgr, err := config.NewSecretManager(cfg.VaultAddress, cfg.VaultToken)
	if err != nil {
		logger.Warn("Vault connection failed, continuing with env config", zap.Error(err))
		return
	}
	secrets, err := mgr.GetKV2("secret/data/arc/contact-discovery")
	if err != nil {
		logger.Warn("Vault secret read failed, continuing with env config", zap.Error(err))
		return
	}
	if v, ok := secrets["NATS_URL"].(string); ok && v != "" {
		cfg.NATSURL = v
	}
	if v, ok := secrets["REDIS_ADDR"].(string); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := secrets["POSTGRES_DSN"].(string); ok && v != "" {
		cfg.PostgresDSN = v
	}
}

func newHealthServer(name string, runtime *consumer.Runtime) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(name))
	e.Use(echomw.Recover())
	e.Use(middleware.NullToEmptyArray())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, runtime.Stats())
	})
	return e
}

func waitForShutdown(logger *zap.Logger, onShutdown func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("initiating graceful shutdown")
	onShutdown()
	logger.Info("shut down cleanly")
}
