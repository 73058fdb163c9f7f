package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"support-bot/bot"
	"support-bot/commands"
	"support-bot/config"
	"support-bot/events"
	"support-bot/handlers"
	"support-bot/lang"
	"support-bot/logging"
	"support-bot/permissions"
	"support-bot/platform"
	"support-bot/scheduler"
	"support-bot/status"
	"support-bot/storage"
)

func main() {
	configPath := pflag.String("config", "config.json", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := lang.Load(cfg.LangFile)
	if err != nil {
		logger.Fatal("load messages", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close()

	publisher, err := events.Open(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
	if err != nil {
		logger.Warn("event publisher unavailable; audit events are dropped", zap.Error(err))
		publisher = events.Nop{}
	}
	defer publisher.Close()

	sched := scheduler.New(scheduler.RealClock{}, logger)

	b, err := bot.New(cfg, logger)
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}
	client := platform.NewDiscord(b.Session)

	h := handlers.New(handlers.Deps{
		Client:     client,
		Store:      store,
		Scheduler:  sched,
		Events:     publisher,
		Lang:       catalog,
		Logger:     logger,
		Tickets:    cfg.Tickets,
		Moderation: cfg.Moderation,
	})
	reg := commands.NewRegistry()
	reg.MustRegister(h.Commands()...)
	router := commands.NewRouter(cfg.Discord.Prefix, reg, permissions.NewGate(client), client, catalog, logger)
	handlers.Register(ctx, b.Session, router, h)

	if err := b.Start(); err != nil {
		logger.Fatal("open gateway", zap.Error(err))
	}
	defer b.Stop()

	var probes *status.Server
	if cfg.Status.Addr != "" {
		probes = status.New(cfg.Status.Addr, b.Ready, map[string]status.Check{
			"storage": store.Ping,
		}, logger)
		probes.Start()
	}

	logger.Info("running",
		zap.String("prefix", cfg.Discord.Prefix),
		zap.Strings("commands", reg.Names()),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	sched.Stop()
	cancel()
	if probes != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := probes.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status shutdown", zap.Error(err))
		}
		done()
	}
}
