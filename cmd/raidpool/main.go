package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform/discord"
	"github.com/vedran77/raidpool/internal/service"
	"github.com/vedran77/raidpool/internal/transport/gateway"
)

func main() {
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", "err", err)
		os.Exit(1)
	}

	client, err := discord.Connect(cfg.Token)
	if err != nil {
		log.Error("connecting to discord", "err", err)
		os.Exit(1)
	}
	defer client.Close()
	log.Info("connected", "bot", client.BotID())

	registry, err := service.NewRegistry(client, cfg)
	if err != nil {
		log.Error("building registry", "err", err)
		os.Exit(1)
	}
	alloc := service.NewAllocator(client, registry)
	binder := service.NewBinder(client, registry, cfg)
	teardown := service.NewTeardown(client, registry, cfg)
	members := service.NewMembership(client, registry, teardown, cfg)
	sweeper := service.NewSweeper(client, registry, teardown, cfg)

	dispatcher, err := gateway.NewDispatcher(client, cfg, registry, alloc, binder, members, client.BotID())
	if err != nil {
		log.Error("building dispatcher", "err", err)
		os.Exit(1)
	}
	dispatcher.Register(client.Session())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)
	log.Info("raidpool running", "sweep_interval", cfg.SweepInterval, "ttl", cfg.RaidTTL)

	<-ctx.Done()
	log.Info("shutting down")
}
