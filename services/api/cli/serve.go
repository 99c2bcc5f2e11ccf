package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/agent"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/events"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/graph"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/redisstate"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
	"github.com/Zeeeepa/codegen-examples-sub000/services/api/config"
	"github.com/Zeeeepa/codegen-examples-sub000/services/api/handler"
	"github.com/Zeeeepa/codegen-examples-sub000/services/api/middleware"
)

const defaultAnalysisCacheSize = 128

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("agent-base-url", "http://localhost:8300", "base URL of the codegen/validation agent")
	serveCmd.Flags().Int("analysis-cache-size", defaultAnalysisCacheSize, "LRU size of the analysis memo")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("agent_base_url", serveCmd.Flags(), "agent-base-url")
	bindFlag("analysis_cache_size", serveCmd.Flags(), "analysis-cache-size")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "api")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "api", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	publisher := events.NewKafkaPublisher(brokers, events.DefaultTopic)
	defer func() { _ = publisher.Close() }()

	redisClient := redisstate.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()
	state := redisstate.NewStateStore(redisClient)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := store.NewPool(initCtx, cfg.PostgresDSN, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	st := store.NewPostgres(pool)

	agentClient := agent.NewClient(cfg.AgentBaseURL)

	orch := trigger.NewOrchestrator(st, st, state,
		trigger.WithLogger(logger),
		trigger.WithPublisher(publisher),
	)
	orch.Register(trigger.NewCodegenExecutor(agentClient))
	orch.Register(trigger.NewValidationExecutor(agentClient))
	orch.Register(trigger.NewWebhookExecutor())
	orch.Register(trigger.NewManualExecutor())

	cacheSize := cfg.AnalysisCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultAnalysisCacheSize
	}
	cache, err := graph.NewAnalysisCache(cacheSize)
	if err != nil {
		return fmt.Errorf("analysis cache: %w", err)
	}

	restHandler := handler.NewREST(st, state, orch, cache, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB limit
	r.Mount("/", restHandler.Routes())

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	go func() {
		logger.Info("api HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	if err := orch.Shutdown(shutCtx); err != nil {
		logger.Error("scheduler shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
