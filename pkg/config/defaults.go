package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medcal"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Slot granularity matches the default appointment duration, so an
	// appointment of default length occupies exactly one generated slot.
	DefaultSlotGranularityMin            = 30
	DefaultDefaultAppointmentDurationMin = 30
	DefaultMaxQueryRangeDays             = 90
	DefaultSlotLockTTL                   = 10 * time.Second

	DefaultCalendarPaletteSize  = 8
	DefaultCalendarFetchTimeout = 10 * time.Second

	DefaultAvailabilityServiceURL = "http://localhost:8081"
	DefaultAppointmentsServiceURL = "http://localhost:8082"
	DefaultDirectoryServiceURL    = "http://localhost:8090"

	DefaultNotifierTopic    = "appointment-events"
	DefaultNotifierDLQTopic = "appointment-events-dlq"

	DefaultPaginationLimit = 100
)
