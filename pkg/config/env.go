package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotGranularityMin            = "SLOT_GRANULARITY_MIN"
	EnvDefaultAppointmentDurationMin = "DEFAULT_APPOINTMENT_DURATION_MIN"
	EnvMaxQueryRangeDays             = "MAX_QUERY_RANGE_DAYS"
	EnvSlotLockTTL                   = "SLOT_LOCK_TTL"

	EnvCalendarPaletteSize  = "CALENDAR_PALETTE_SIZE"
	EnvCalendarFetchTimeout = "CALENDAR_FETCH_TIMEOUT"

	EnvAvailabilityServiceURL = "AVAILABILITY_SERVICE_URL"
	EnvAppointmentsServiceURL = "APPOINTMENTS_SERVICE_URL"
	EnvDirectoryServiceURL    = "DIRECTORY_SERVICE_URL"

	EnvNotifierEnabled  = "NOTIFIER_ENABLED"
	EnvNotifierTopic    = "NOTIFIER_TOPIC"
	EnvNotifierDLQTopic = "NOTIFIER_DLQ_TOPIC"
)
