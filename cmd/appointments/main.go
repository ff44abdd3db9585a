package main

import (
	"medcal/internal/appointments/handler"
	"medcal/internal/appointments/repository"
	"medcal/internal/appointments/service"
	"medcal/internal/appointments/validator"
	availabilityrepo "medcal/internal/availability/repository"
	availabilityservice "medcal/internal/availability/service"
	availabilityvalidator "medcal/internal/availability/validator"
	"medcal/pkg/app"
	"medcal/pkg/config"
	"medcal/pkg/kafka"
	kafka_config "medcal/pkg/kafka/config"
	"medcal/pkg/notify"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Appointments service")
	appointmentService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewAppointmentHandler(appointmentService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.AppointmentService {
	appointmentValidator := validator.NewAppointmentValidator(cfg.Log)
	appointmentRepo := repository.NewMongoAppointmentRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(cfg)

	// The write-path availability re-check runs in process against the same
	// database rather than calling the availability service over HTTP.
	availabilityChecker := availabilityservice.NewAvailabilityService(
		availabilityrepo.NewMongoTemplateRepository(cfg),
		appointmentRepo,
		availabilityvalidator.NewTemplateValidator(cfg.Log),
		cfg,
	)

	appointmentService := service.NewAppointmentService(
		appointmentRepo,
		lockRepo,
		availabilityChecker,
		appointmentValidator,
		initNotifier(cfg),
		cfg,
	)

	cfg.Log.Info("Appointments service initialized", "database", cfg.MongoDatabaseName)
	return appointmentService
}

func initNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.NotifierEnabled {
		cfg.Log.Info("Notifier disabled, appointment events will not be published")
		return notify.NewNoopNotifier()
	}

	producer, err := kafka.NewProducer(kafka_config.Load(), cfg.NotifierTopic, cfg.NotifierDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	cfg.Log.Info("Notifier enabled", "topic", cfg.NotifierTopic)
	return notify.NewKafkaNotifier(producer, ServiceName, cfg.Log)
}
