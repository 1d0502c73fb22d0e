// Command alertflow runs the alert rule engine service: it loads rule
// definitions, schedules their evaluation against NATS-backed sensor data,
// and dispatches triggered actions onto the action queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360/alertflow/actions"
	"github.com/c360/alertflow/component"
	"github.com/c360/alertflow/config"
	"github.com/c360/alertflow/dispatch"
	"github.com/c360/alertflow/engine"
	"github.com/c360/alertflow/metric"
	"github.com/c360/alertflow/natsclient"
	"github.com/c360/alertflow/runner"
	"github.com/c360/alertflow/source"
)

const shutdownTimeout = 10 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic during startup", "panic", r)
			os.Exit(1)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	setupLogging(cfg.Logging)
	logger := slog.Default()
	logger.Info("Starting alertflow", "config", *configPath)

	registry := metric.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// NATS connection
	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithClientName(cfg.NATS.ClientName),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithTimeout(cfg.NATS.Timeout.Std()),
		natsclient.WithMetrics(registry.Core),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("NATS close failed", "error", err)
		}
	}()

	// Data source: latest sensor readings from the topic KV bucket
	topicKV, err := client.KeyValue(ctx, cfg.Source.Bucket)
	if err != nil {
		return fmt.Errorf("open source bucket: %w", err)
	}
	src := source.NewKVSource(topicKV)

	// Dispatcher: triggered actions go onto the queue subject
	dispatcher := dispatch.NewNATSPublisher(client, cfg.Actions.Subject)

	engineMetrics, err := engine.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register engine metrics: %w", err)
	}
	runnerMetrics, err := runner.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register runner metrics: %w", err)
	}

	rulesRunner := runner.New(
		engine.Adapters{Source: src, Dispatcher: dispatcher},
		runner.Options{
			TickInterval:    cfg.Rules.TickInterval.Std(),
			DefaultInterval: cfg.Rules.DefaultInterval.Std(),
			RunTimeout:      cfg.Rules.RunTimeout.Std(),
			MaxSteps:        cfg.Rules.MaxSteps,
			Workers:         cfg.Rules.Workers,
			QueueSize:       cfg.Rules.QueueSize,
		},
		runner.WithMetrics(runnerMetrics),
		runner.WithEngineOptions(engine.WithMetrics(engineMetrics)),
	)
	if err := rulesRunner.LoadFiles(cfg.Rules.Files...); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	manager := component.NewManager(component.WithMetrics(registry.Core))
	if err := manager.Register(rulesRunner); err != nil {
		return fmt.Errorf("register runner: %w", err)
	}

	// Action consumer: executes what publish nodes dispatch
	if cfg.Actions.Enabled {
		subscriber, err := buildSubscriber(ctx, client, cfg.Actions, registry.Core)
		if err != nil {
			return fmt.Errorf("build action subscriber: %w", err)
		}
		if err := manager.Register(subscriber); err != nil {
			return fmt.Errorf("register subscriber: %w", err)
		}
	}

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		logger.Info("Metrics server listening", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
	}

	logger.Info("Service started", "rules", len(rulesRunner.Rules()))

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-manager.Errors():
		logger.Error("Component failure, shutting down", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Warn("Metrics server stop failed", "error", err)
		}
	}
	if err := manager.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("stop components: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

// buildSubscriber wires the action router with the handlers this deployment
// supports.
func buildSubscriber(ctx context.Context, client *natsclient.Client, cfg config.ActionsConfig, core *metric.CoreMetrics) (*actions.Subscriber, error) {
	router := actions.NewRouter()

	if cfg.SMTP.Host != "" {
		mailer, err := actions.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		router.Register("email", actions.EmailHandler(mailer))
	}

	todoKV, err := client.KeyValue(ctx, cfg.TodoBucket)
	if err != nil {
		return nil, err
	}
	router.Register("add_todo", actions.TodoHandler(actions.NewKVTodoStore(todoKV)))

	return actions.NewSubscriber(client, cfg.Subject, router, actions.WithMetrics(core))
}
