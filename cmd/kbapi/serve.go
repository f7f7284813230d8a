package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/securizon/kbapi/internal/api"
	"github.com/securizon/kbapi/internal/config"
	"github.com/securizon/kbapi/internal/events"
	"github.com/securizon/kbapi/internal/health"
	"github.com/securizon/kbapi/internal/kafka"
	"github.com/securizon/kbapi/internal/knowledgebase"
	"github.com/securizon/kbapi/internal/logging"
	"github.com/securizon/kbapi/internal/telemetry"
)

const topicSetupTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 3000, "listen port (overrides config and $PORT)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting kbapi", "version", version, "commit", commit, "built", date)

	shutdownTracing, err := telemetry.InitTracing(telemetry.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	store, err := knowledgebase.OpenStore(cfg.Knowledge.ArticlesFile)
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}

	checker := health.NewHealthChecker()
	opts := []knowledgebase.Option{knowledgebase.WithLogger(logger)}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	switch {
	case errors.Is(err, kafka.ErrInvalidBrokers):
		logger.Info("analytics stream disabled")
	case err != nil:
		return fmt.Errorf("init kafka producer: %w", err)
	default:
		defer producer.Close()
		topicCtx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
		err := kafka.EnsureTopic(topicCtx, cfg.Kafka.Brokers[0], kafka.EventsTopic(cfg.Kafka.Topic))
		cancel()
		if err != nil {
			logger.Warn("could not ensure analytics topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		opts = append(opts, knowledgebase.WithRecorder(events.NewEventBus(producer, logger)))
		checker.Register(&health.KafkaHealthCheck{Producer: producer})
		logger.Info("analytics stream enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	kb := knowledgebase.NewKnowledgeBaseService(store, knowledgebase.KBConfig{
		SearchDefaultLimit:  cfg.Knowledge.SearchDefaultLimit,
		SearchMaxLimit:      cfg.Knowledge.SearchMaxLimit,
		PopularDefaultLimit: cfg.Knowledge.PopularDefaultLimit,
		PopularMaxLimit:     cfg.Knowledge.PopularMaxLimit,
	}, opts...)
	checker.Register(&health.KnowledgeBaseHealthCheck{KB: kb})

	gateway := api.NewGateway(api.GatewayConfig{
		Addr:           cfg.Server.Addr(),
		Version:        "1.0.0",
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		MaxRequestSize: cfg.Server.MaxRequestSize,
	}, kb, checker, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- gateway.Start() }()

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	logger.Info("knowledge base API running",
		"url", baseURL,
		"docs", baseURL+"/api/docs",
		"health", baseURL+"/health",
		"articles", store.Len(),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := gateway.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("kbapi stopped")
	return nil
}
