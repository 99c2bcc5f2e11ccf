package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/agent"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/events"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/redisstate"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
	"github.com/Zeeeepa/codegen-examples-sub000/services/reconciler"
	"github.com/Zeeeepa/codegen-examples-sub000/services/reconciler/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9096", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("agent-base-url", "http://localhost:8300", "base URL of the codegen/validation agent")
	serveCmd.Flags().Duration("sweep-interval", 15*time.Second, "time between pending-trigger sweeps")
	serveCmd.Flags().Int("batch-limit", 50, "maximum triggers considered per sweep")
	serveCmd.Flags().Int("rate-limit", 60, "dispatches allowed per trigger type per minute; 0 disables")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("agent_base_url", serveCmd.Flags(), "agent-base-url")
	bindFlag("sweep_interval", serveCmd.Flags(), "sweep-interval")
	bindFlag("batch_limit", serveCmd.Flags(), "batch-limit")
	bindFlag("rate_limit", serveCmd.Flags(), "rate-limit")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "reconciler")
	instanceID := "reconciler-" + uuid.New().String()[:8]

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "reconciler", cfg.OTelEndpoint)
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

	var limiter redisstate.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = redisstate.NewRateLimiter(redisClient, cfg.RateLimit, time.Minute)
	}

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

	elector := reconciler.NewLeaderElector(redisClient, instanceID, logger)
	rec := reconciler.New(st, orch, limiter, elector, cfg.SweepInterval, cfg.BatchLimit, logger)

	runCtx, runCancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		runCancel()
	}()

	logger.Info("reconciler starting",
		slog.String("instance_id", instanceID),
		slog.Duration("sweep_interval", cfg.SweepInterval),
		slog.Int("batch_limit", cfg.BatchLimit),
	)
	rec.Run(runCtx)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := orch.Shutdown(shutCtx); err != nil {
		logger.Error("scheduler shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
