// cmd/assessment-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"print-advisor/internal/assessment/analysis"
	"print-advisor/internal/assessment/export"
	"print-advisor/internal/assessment/notify"
	"print-advisor/internal/assessment/store"
	"print-advisor/internal/assessment/wizard"
	awsclients "print-advisor/internal/common/aws"
	"print-advisor/internal/common/config"
	"print-advisor/internal/common/database"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/observability"
	"print-advisor/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting assessment service...",
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Notification sinks ---
	sinks := []notify.Sink{
		notify.NewLeadRecordSink(pg.DB),
		notify.NewAnalyticsSink(esClient.Client, cfg.Database.Elasticsearch.LeadIndex),
	}

	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		sinks = append(sinks, notify.NewEmailSink(sesClient,
			cfg.Notifications.Email.FromEmail, cfg.Notifications.Email.SalesDesk))
	}

	if cfg.Notifications.SNS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		sinks = append(sinks, notify.NewSNSSink(snsClient, cfg.Notifications.SNS.TopicARN))
	}

	dispatcher := notify.NewDispatcher(cfg.Assessment.NotifyQueueSize, sinks, log)
	dispatcher.Start()
	defer dispatcher.Stop()
	zapLog.Info("Notification dispatcher started", zap.Int("sinks", len(sinks)))

	// --- Analysis engine ---
	var engineOpts []analysis.EngineOption
	if cfg.APIs.Narrative.Enabled {
		engineOpts = append(engineOpts, analysis.WithNarrative(
			analysis.NewHTTPGenerator(
				cfg.APIs.Narrative.BaseURL,
				cfg.APIs.Narrative.APIKey,
				time.Duration(cfg.APIs.Narrative.Timeout)*time.Millisecond,
				log,
			),
		))
	}
	engine := analysis.NewEngine(log, engineOpts...)
	exporter := export.NewReportExporter(log)

	progressTTL := time.Duration(cfg.Assessment.ProgressTTLHours) * time.Hour
	analysisTimeout := time.Duration(cfg.Assessment.AnalysisTimeout) * time.Millisecond

	// --- Session API ---
	// Progress is keyed on the client's resume key, not the session id, so a
	// returning visitor (or a restarted server) can reattach to the snapshot.
	sessions := server.NewSessionManager(func(sessionID, resumeKey string) *wizard.Machine {
		progressStore := store.NewRedisStore(
			redis.Client,
			cfg.Assessment.ProgressKeyPrefix+resumeKey,
			progressTTL,
			log,
		)
		return wizard.NewMachine(sessionID, wizard.Deps{
			Store:           progressStore,
			AnalysisClient:  engine,
			Notifier:        dispatcher,
			Exporter:        exporter,
			Logger:          log,
			AnalysisTimeout: analysisTimeout,
		})
	})

	api := server.New(sessions, log)
	mux := api.Routes()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Assessment service stopped gracefully")
}
