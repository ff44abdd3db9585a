package main

import (
	"medcal/internal/calendar/handler"
	"medcal/internal/calendar/service"
	"medcal/pkg/app"
	"medcal/pkg/client"
	"medcal/pkg/config"
)

const ServiceName = "calendar"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Calendar service")
	calendarService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewCalendarHandler(calendarService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.CalendarService {
	rosterClient := client.NewRosterClient(cfg.DirectoryServiceURL, cfg.RequestTimeout)
	source := service.NewHTTPCalendarSource(
		client.NewAvailabilityClient(cfg.AvailabilityServiceURL, cfg.RequestTimeout),
		client.NewAppointmentClient(cfg.AppointmentsServiceURL, cfg.RequestTimeout),
		config.DefaultPaginationLimit,
	)

	calendarService := service.NewCalendarService(rosterClient, source, cfg)

	cfg.Log.Info("Calendar service initialized",
		"availability_url", cfg.AvailabilityServiceURL,
		"appointments_url", cfg.AppointmentsServiceURL,
		"directory_url", cfg.DirectoryServiceURL,
	)
	return calendarService
}
