// Command vespa-loader consumes the email, calendar, contact, document,
// fragment, todo and todo-list topics, builds a docfactory.Document
// (chunking large content where applicable), and upserts it into the
// search backend (§4.D, §4.E, §4.H). The llm_chats, shipment_events,
// meeting_polls and bookings topics are not consumed.
//
// Dependencies:
//   - NATS: consumes INGEST_EVENTS.<topic> for each topic bound in registerLoaderTopics
//   - Redis: idempotency key storage
//   - Search backend: HTTP upsert-by-doc_id sink
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/ingest-fabric/internal/config"
	"github.com/arc-self/ingest-fabric/internal/middleware"
	"github.com/arc-self/ingest-fabric/internal/natsclient"
	"github.com/arc-self/ingest-fabric/internal/telemetry"
	"github.com/arc-self/ingest-fabric/pkg/adapters"
	"github.com/arc-self/ingest-fabric/pkg/chunking"
	"github.com/arc-self/ingest-fabric/pkg/consumer"
	"github.com/arc-self/ingest-fabric/pkg/docfactory"
	"github.com/arc-self/ingest-fabric/pkg/events"
	"github.com/arc-self/ingest-fabric/pkg/idempotency"
)

const serviceName = "vespa_loader"

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

	natsClient, err := natsclient.NewClient(cfg.NATSURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer natsClient.Close()

	if err := natsClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	store := adapters.NewRedisIdempotencyStore(redisClient)
	kernel := idempotency.New(store, logger)

	writer := adapters.NewHTTPSearchWriter(cfg.SearchBackendURL)

	runtime := consumer.New(serviceName, natsClient, kernel, logger)
	registerLoaderTopics(runtime, writer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := runtime.Start(ctx); err != nil {
		logger.Fatal("consumer runtime start failed", zap.Error(err))
	}

	e := newHealthServer(serviceName, runtime)
	go func() {
		logger.Info("vespa-loader listening", zap.String("addr", cfg.HTTPAddr))
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

// registerLoaderTopics binds the loader's topics to the build-upsert
// pipeline. Fragment topics are pre-chunked upstream (their payload IS a
// fragment) and skip the chunker; the word, sheet and presentation
// document topics are chunked here and the chunks are upserted after the
// parent document; task_documents is upserted without chunking. The
// internal-tool topics (llm_chats, shipment_events, meeting_polls,
// bookings) are not bound, although docfactory.Build maps their events.
func registerLoaderTopics(r *consumer.Runtime, writer adapters.SearchWriter, logger *zap.Logger) {
	plain := func(ctx context.Context, e events.Event) (any, error) {
		doc, err := docfactory.Build(e)
		if err != nil {
			return nil, err
		}
		if err := writer.Upsert(ctx, doc); err != nil {
			return nil, &consumer.TransientError{Err: err}
		}
		return doc.DocID, nil
	}

	chunked := func(ctx context.Context, e events.Event) (any, error) {
		doc, err := docfactory.Build(e)
		if err != nil {
			return nil, err
		}
		if err := writer.Upsert(ctx, doc); err != nil {
			return nil, &consumer.TransientError{Err: err}
		}

		de, ok := e.(*events.DocumentEvent)
		if !ok {
			return doc.DocID, nil
		}
		rule := chunking.DefaultRule(string(de.Document.ContentType))
		result := chunking.Chunk(doc.DocID, doc.Content, rule)
		for _, c := range result.Chunks {
			if err := writer.Upsert(ctx, chunkDocument(doc, c)); err != nil {
				logger.Warn("chunk upsert failed", zap.String("parent", doc.DocID), zap.Error(err))
			}
		}
		return result.ContentCoverage, nil
	}

	for _, topic := range []string{
		events.TopicEmails, events.TopicCalendars, events.TopicContacts,
		events.TopicWordFragments, events.TopicSheetFragments, events.TopicPresentationFragments,
		events.TopicTaskDocuments, events.TopicTodos, events.TopicTodoLists,
	} {
		r.RegisterTopic(topic, plain)
	}
	for _, topic := range []string{
		events.TopicWordDocuments, events.TopicSheetDocuments, events.TopicPresentationDocuments,
	} {
		r.RegisterTopic(topic, chunked)
	}
}

func chunkDocument(parent docfactory.Document, c chunking.DocumentChunk) docfactory.Document {
	seq := c.ChunkSequence
	return docfactory.Document{
		DocID:            c.ID,
		SourceType:       parent.SourceType + "_fragment",
		UserID:           parent.UserID,
		Provider:         parent.Provider,
		Title:            parent.Title,
		Content:          c.Content,
		ParentDocID:      parent.DocID,
		FragmentSequence: &seq,
		CreatedAt:        parent.CreatedAt,
		UpdatedAt:        parent.UpdatedAt,
	}
}

func loadSecretOverrides(cfg *config.ServiceConfig, logger *zap.Logger) {
	mgr, err := config.NewSecretManager(cfg.VaultAddress, cfg.VaultToken)
	if err != nil {
		logger.Warn("Vault connection failed, continuing with env config", zap.Error(err))
		return
	}
	secrets, err := mgr.GetKV2("secret/data/arc/vespa-loader")
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
	if v, ok := secrets["SEARCH_BACKEND_URL"].(string); ok && v != "" {
		cfg.SearchBackendURL = v
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
