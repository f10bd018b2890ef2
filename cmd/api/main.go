// Package main is the entry point for the RecruitMail server.
//
// It loads configuration, builds the provider clients and delivery registry,
// mounts the API and the page on the core chassis, and serves HTTP until
// SIGINT or SIGTERM. The idle-session sweeper runs alongside the server in
// the same errgroup.
//
// Send passes run under their own base context. On shutdown the HTTP server
// drains first; running passes are then cancelled and stop before their next
// recipient.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"golang.org/x/sync/errgroup"

	"recruitmail/internal/api/handlers"
	"recruitmail/internal/config"
	"recruitmail/internal/core"
	"recruitmail/internal/delivery"
	"recruitmail/internal/sender"
	"recruitmail/internal/session"
	"recruitmail/web"
)

// shutdownTimeout bounds the HTTP drain on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("recruitmail starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)
	if !cfg.Delivery.MailgunDomainConfigured() {
		logger.Warn("MAILGUN_DOMAIN is not set; Mailgun sends will be rejected by the provider",
			"domain", cfg.Delivery.MailgunDomain)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, err := newMetrics(ctx, cfg.Observability, logger)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	// Passes outlive the request that started them and are cancelled only
	// after the HTTP server has drained.
	passCtx, cancelPasses := context.WithCancel(context.Background())
	defer cancelPasses()

	srv, err := buildServer(cfg, logger, metrics, passCtx)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return srv.Sessions.Run(gctx, cfg.Server.SessionSweepEvery)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		cancelPasses()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

// buildServer wires the delivery stack, sessions, handlers and page onto a
// mounted core.Server.
func buildServer(cfg *config.Config, logger *slog.Logger, metrics sender.Metrics, passCtx context.Context) (*core.Server, error) {
	clients := delivery.NewClientSet(cfg.Delivery, logger)
	registry := delivery.NewDefaultRegistry(clients, logger)

	deps := session.Deps{
		Strategy: registry,
		Defaults: cfg.Defaults.DeliveryDefaults(),
		Interval: cfg.Delivery.SendInterval,
		Metrics:  metrics,
		Logger:   logger,
	}
	sessions := session.NewManager(func(id string) *session.Session {
		return session.New(id, deps)
	}, cfg.Server.SessionIdleTTL, logger)

	srv, err := core.NewServer(cfg, sessions, logger)
	if err != nil {
		return nil, err
	}

	for _, p := range clients.Probes {
		srv.HealthProbes = append(srv.HealthProbes, p)
	}

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		handlers.NewSessionHandler(logger).RegisterRoutes,
		handlers.NewRecipientHandler(srv.Validator, logger).RegisterRoutes,
		handlers.NewTemplateHandler(srv.Validator, logger).RegisterRoutes,
		handlers.NewConfigHandler(srv.Validator, logger, cfg.Delivery.MailgunDomainConfigured()).RegisterRoutes,
		handlers.NewSendHandler(passCtx, logger).RegisterRoutes,
	)
	srv.Page = web.Handler(cfg.Build.Version, logger)

	srv.MountRoutes()
	return srv, nil
}

// newMetrics returns the CloudWatch publisher when metrics are enabled and a
// no-op otherwise. AWSEndpointURL points the client at a local emulator.
func newMetrics(ctx context.Context, obs config.ObservabilityConfig, logger *slog.Logger) (sender.Metrics, error) {
	if !obs.MetricsEnabled {
		return sender.NoopMetrics{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(obs.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if obs.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(obs.AWSEndpointURL)
		}
	})
	logger.Info("publishing delivery metrics to CloudWatch", "namespace", obs.MetricNamespace, "region", obs.AWSRegion)
	return sender.NewCloudWatchMetrics(client, obs.MetricNamespace, logger), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
