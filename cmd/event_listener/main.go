package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"club_service/internal/config"
	"club_service/internal/events"
	sl "club_service/internal/lib/logger"
	"club_service/internal/rabbitmq"
	"club_service/internal/storage/postgres"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := sl.Setup(cfg.Env)

	log.Info("starting event listener", slog.String("env", cfg.Env),
		slog.String("channel", cfg.Listener.Channel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	dispatcher := events.NewDispatcher(log, msgBroker)

	listener := events.NewListener(log, postgres.DSN(cfg), cfg.Listener.Channel,
		cfg.Listener.WaitTimeout, dispatcher)

	if err := listener.Run(ctx); err != nil {
		log.Error("listener stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Event listener stopped")
}
