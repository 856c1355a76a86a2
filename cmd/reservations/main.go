package main

import (
	"context"
	"time"

	"kosbook/internal/notifications"
	"kosbook/internal/reservations/handler"
	"kosbook/internal/reservations/repository"
	"kosbook/internal/reservations/service"
	"kosbook/internal/reservations/validator"
	unitsrepository "kosbook/internal/units/repository"
	"kosbook/pkg/app"
	"kosbook/pkg/clock"
	"kosbook/pkg/config"
	"kosbook/pkg/kafka"
	kafka_config "kosbook/pkg/kafka/config"
	kafka_middleware "kosbook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService, availabilityService := initServices(cfg)
	go sweepExpired(cfg, reservationService)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, availabilityService, cfg.Log))
	serverApp.Run()
}

// sweepExpired periodically completes confirmed reservations whose stay has
// ended, as a backstop for the lazy completion done on reads.
func sweepExpired(cfg *config.Config, svc service.ReservationService) {
	ticker := time.NewTicker(cfg.CompletionSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		if _, err := svc.CompleteExpired(ctx); err != nil {
			cfg.Log.Error("Completion sweep failed", "error", err)
		}
		cancel()
	}
}

func initServices(cfg *config.Config) (service.ReservationService, service.AvailabilityService) {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)
	unitRepo := unitsrepository.NewMongoUnitRepository(cfg)

	availabilityService := service.NewAvailabilityService(reservationRepo, unitRepo, cfg)
	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		unitRepo,
		reservationValidator,
		initNotifier(cfg),
		availabilityService,
		clock.System(),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService, availabilityService
}

// initNotifier wires the Kafka producer for reservation events. A broker being
// down must never block reservations, so producer setup failure degrades to the
// noop notifier instead of aborting startup.
func initNotifier(cfg *config.Config) service.Notifier {
	producer, err := kafka.NewProducer(kafka_config.Load(), cfg.ReservationEventsTopic, cfg.ReservationEventsDLQ)
	if err != nil {
		cfg.Log.Error("Failed to initialize Kafka producer, reservation events disabled", "error", err)
		return notifications.NoopNotifier{}
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return notifications.NewKafkaNotifier(producer, ServiceName, cfg.Log)
}
