package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/internal/capture"
	"github.com/dmayorov/magnetophon/internal/config"
	"github.com/dmayorov/magnetophon/internal/engine"
	"github.com/dmayorov/magnetophon/internal/event"
	"github.com/dmayorov/magnetophon/internal/notify"
	"github.com/dmayorov/magnetophon/internal/server"
	"github.com/dmayorov/magnetophon/internal/snapshot"
	"github.com/dmayorov/magnetophon/internal/store"
	"github.com/dmayorov/magnetophon/internal/version"
	"github.com/dmayorov/magnetophon/internal/ws"
	"github.com/dmayorov/magnetophon/pkg/models"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("magnetophon starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	// Open database and load the persisted baseline.
	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "magnetophon.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := snapshot.NewStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	states, err := snaps.LoadCurve(ctx)
	if err != nil {
		logger.Fatal("failed to load baseline snapshot", zap.Error(err))
	}
	curve := baseline.Restore(states)
	if len(states) > 0 {
		logger.Info("baseline restored", zap.Int("buckets", len(states)),
			zap.Int64("observations", curve.Overall.Count()))
	}

	// Optional history CSV replay rebuilds the recurrence state.
	var history []models.Interval
	if path := viperCfg.GetString("history_csv"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal("failed to open history csv", zap.String("path", path), zap.Error(err))
		}
		history, err = snapshot.ReadHistory(f, logger.Named("history"))
		f.Close()
		if err != nil {
			logger.Fatal("failed to read history csv", zap.String("path", path), zap.Error(err))
		}
		logger.Info("history loaded", zap.String("path", path), zap.Int("intervals", len(history)))
	}

	// Coverage starts at the earliest replayed event, or now on a cold start.
	epoch := time.Now()
	if len(history) > 0 {
		epoch = history[0].Start
	}

	engCfg := engine.DefaultConfig()
	if err := viperCfg.UnmarshalKey("engine", &engCfg); err != nil {
		logger.Fatal("invalid engine configuration", zap.Error(err))
	}

	var summary *snapshot.SummaryWriter
	if path := viperCfg.GetString("summary_csv"); path != "" {
		summary = snapshot.NewSummaryWriter(path)
	}

	bus := event.NewBus(logger.Named("event"))
	eng := engine.New(engCfg, curve, snaps, summary, bus, epoch, logger.Named("engine"))
	defer eng.Close()

	if len(history) > 0 {
		if err := eng.Replay(ctx, history); err != nil {
			logger.Fatal("history replay failed", zap.Error(err))
		}
	}

	// Notification channels.
	var notifiers []notify.Notifier
	if url := viperCfg.GetString("notify.webhook.url"); url != "" {
		var whCfg notify.WebhookConfig
		if err := viperCfg.UnmarshalKey("notify.webhook", &whCfg); err != nil {
			logger.Fatal("invalid webhook configuration", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewWebhookNotifier(whCfg))
	}
	if cmd := viperCfg.GetString("notify.script.command"); cmd != "" {
		var scCfg notify.ScriptConfig
		if err := viperCfg.UnmarshalKey("notify.script", &scCfg); err != nil {
			logger.Fatal("invalid script configuration", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewScriptNotifier(scCfg))
	}
	if len(notifiers) > 0 {
		dispatcher := notify.NewDispatcher(notifiers,
			viperCfg.GetFloat64("notify.max_per_hour"), logger.Named("notify"))
		bus.Subscribe(event.TopicTriggered, dispatcher.HandleEvent)
		bus.Subscribe(event.TopicRearmed, dispatcher.HandleEvent)
		logger.Info("notification channels configured", zap.Int("count", len(notifiers)))
	} else {
		logger.Warn("no notification channels configured")
	}

	// HTTP API + live WebSocket feed.
	wsHandler := ws.NewHandler(bus, logger.Named("ws"))
	addr := fmt.Sprintf("%s:%d",
		viperCfg.GetString("server.host"), viperCfg.GetInt("server.port"))
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, eng, snaps, logger.Named("http"), readyCheck, wsHandler)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Daily maintenance prunes the activity log.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := eng.Prune(ctx); err != nil {
					logger.Warn("activity log prune failed", zap.Error(err))
				} else if n > 0 {
					logger.Info("activity log pruned", zap.Int64("rows", n))
				}
			}
		}
	}()

	// Feed interval events from stdin until the stream or the process ends.
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		src := capture.NewNDJSONSource(os.Stdin, logger.Named("capture"))
		for {
			iv, err := src.Next(ctx)
			if err == io.EOF || ctx.Err() != nil {
				return
			}
			if err != nil {
				logger.Error("event stream read failed", zap.Error(err))
				return
			}
			if _, err := eng.ProcessInterval(ctx, iv); err != nil {
				logger.Warn("interval rejected",
					zap.String("label", iv.Label()), zap.Error(err))
			}
		}
	}()

	logger.Info("magnetophon ready", zap.String("addr", addr))

	// Wait for shutdown signal or end of the event stream.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-streamDone:
		logger.Info("event stream ended")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	eng.Close()

	logger.Info("magnetophon stopped")
}
