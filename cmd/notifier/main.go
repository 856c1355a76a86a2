package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"kosbook/internal/notifications"
	"kosbook/pkg/config"
	"kosbook/pkg/kafka"
	kafka_config "kosbook/pkg/kafka/config"
	kafka_middleware "kosbook/pkg/kafka/middleware"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "kosbook-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	worker := notifications.NewWorker(notifications.NewLogDispatcher(cfg.Log), cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafka_config.Load(),
		cfg.ReservationEventsTopic,
		consumerGroup,
		cfg.ReservationEventsDLQ,
		worker.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier", "topic", cfg.ReservationEventsTopic, "group", consumerGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
