package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/roguepath"
	"github.com/aretw0/roguepath/internal/api"
	"github.com/aretw0/roguepath/internal/config"
	"github.com/aretw0/roguepath/internal/events"
	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/internal/metrics"
	"github.com/aretw0/roguepath/pkg/adapters/catalog"
	"github.com/aretw0/roguepath/pkg/adapters/mqtt"
	"github.com/aretw0/roguepath/pkg/tick"
	"github.com/spf13/cobra"
)

const (
	lockTTL         = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the engine in server mode, exposing groups, paths and room runs as a
JSON API over HTTP. Settings come from ROGUEPATH_* environment variables;
flags take precedence.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides ROGUEPATH_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Catalog, _ = cmd.Flags().GetString("catalog")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewWithWriter(os.Stderr, level, cfg.LogJSON)

	if cfg.Catalog == "" {
		return fmt.Errorf("a room catalog is required (--catalog or %sCATALOG)", config.Prefix)
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			logger.Warn("Failed to close path store", "err", err)
		}
	}()

	bus := events.NewBus(cfg.EventBuffer)
	defer bus.Close()
	collector := metrics.New()

	opts := []roguepath.Option{
		roguepath.WithLogger(logger),
		roguepath.WithStore(be.store),
		roguepath.WithLoop(tick.New(tick.WithResolution(cfg.TickResolution), tick.WithLogger(logger))),
		roguepath.WithScorer(cat.Scorer),
		roguepath.WithIntervals(cfg.TimerInterval, cfg.SpawnInterval),
		roguepath.WithMaxAttempts(cfg.MaxAttempts),
		roguepath.WithNotifier(bus),
		roguepath.WithNotifier(collector),
	}
	if be.locker != nil {
		opts = append(opts, roguepath.WithLocker(be.locker, lockTTL))
	}
	if seed, _ := cfg.SeedValue(); seed != nil {
		opts = append(opts, roguepath.WithSeed(*seed))
	}

	if cfg.MQTTBroker != "" {
		client := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientID)
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect mqtt %s: %w", cfg.MQTTBroker, err)
		}
		defer client.Disconnect()
		opts = append(opts, roguepath.WithNotifier(
			mqtt.NewNotifier(client, mqtt.WithTopicPrefix(cfg.MQTTTopic), mqtt.WithLogger(logger)),
		))
		logger.Info("Publishing events over MQTT", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	}

	host, err := roguepath.New(cat.Rooms, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.New(host, bus,
			api.WithMetrics(collector.Handler()),
			api.WithLogger(logger),
		).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener or the heartbeat.
	serverErrors := make(chan error, 2)

	go func() {
		if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrors <- fmt.Errorf("heartbeat: %w", err)
		}
	}()

	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "catalog", cfg.Catalog, "seed", host.Seed())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return err

	case <-ctx.Done():
		logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "err", err)
			}
		}
		host.Wait()
		logger.Info("Server stopped")
	}
	return nil
}
