package main

import (
	appointmentrepo "medcal/internal/appointments/repository"
	"medcal/internal/availability/handler"
	"medcal/internal/availability/repository"
	"medcal/internal/availability/service"
	"medcal/internal/availability/validator"
	"medcal/pkg/app"
	"medcal/pkg/config"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Availability service")
	availabilityService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewAvailabilityHandler(availabilityService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.AvailabilityService {
	templateValidator := validator.NewTemplateValidator(cfg.Log)
	templateRepo := repository.NewMongoTemplateRepository(cfg)
	// The appointment repository doubles as the booked-slot source so the
	// read path subtracts live bookings without an HTTP hop.
	bookedSource := appointmentrepo.NewMongoAppointmentRepository(cfg)

	availabilityService := service.NewAvailabilityService(
		templateRepo,
		bookedSource,
		templateValidator,
		cfg,
	)

	cfg.Log.Info("Availability service initialized", "database", cfg.MongoDatabaseName)
	return availabilityService
}
