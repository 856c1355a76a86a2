package main

import (
	"kosbook/internal/units/handler"
	"kosbook/internal/units/repository"
	"kosbook/internal/units/service"
	"kosbook/internal/units/validator"
	"kosbook/pkg/app"
	"kosbook/pkg/config"
)

const ServiceName = "units"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Units service")
	unitService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewUnitHandler(unitService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.UnitService {
	unitValidator := validator.NewUnitValidator(cfg.Log)
	unitRepo := repository.NewMongoUnitRepository(cfg)
	unitService := service.NewUnitService(
		unitRepo,
		unitValidator,
		cfg,
	)

	cfg.Log.Info("Unit service initialized", "database", cfg.MongoDatabaseName)
	return unitService
}
