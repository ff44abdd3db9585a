package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"medcal/pkg/client"
	"medcal/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SlotGranularityMin            int
	DefaultAppointmentDurationMin int
	MaxQueryRangeDays             int
	SlotLockTTL                   time.Duration

	CalendarPaletteSize  int
	CalendarFetchTimeout time.Duration

	AvailabilityServiceURL string
	AppointmentsServiceURL string
	DirectoryServiceURL    string

	NotifierEnabled  bool
	NotifierTopic    string
	NotifierDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SlotGranularityMin:            getEnvNum(EnvSlotGranularityMin, DefaultSlotGranularityMin),
		DefaultAppointmentDurationMin: getEnvNum(EnvDefaultAppointmentDurationMin, DefaultDefaultAppointmentDurationMin),
		MaxQueryRangeDays:             getEnvNum(EnvMaxQueryRangeDays, DefaultMaxQueryRangeDays),
		SlotLockTTL:                   getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		CalendarPaletteSize:  getEnvNum(EnvCalendarPaletteSize, DefaultCalendarPaletteSize),
		CalendarFetchTimeout: getEnvDuration(EnvCalendarFetchTimeout, DefaultCalendarFetchTimeout),

		AvailabilityServiceURL: getEnvStr(EnvAvailabilityServiceURL, DefaultAvailabilityServiceURL),
		AppointmentsServiceURL: getEnvStr(EnvAppointmentsServiceURL, DefaultAppointmentsServiceURL),
		DirectoryServiceURL:    getEnvStr(EnvDirectoryServiceURL, DefaultDirectoryServiceURL),

		NotifierEnabled:  getEnvBool(EnvNotifierEnabled, false),
		NotifierTopic:    getEnvStr(EnvNotifierTopic, DefaultNotifierTopic),
		NotifierDLQTopic: getEnvStr(EnvNotifierDLQTopic, DefaultNotifierDLQTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":       cfg.RequestTimeout,
		"IdempotencyTTL":       cfg.IdempotencyTTL,
		"ReadTimeout":          cfg.ReadTimeout,
		"WriteTimeout":         cfg.WriteTimeout,
		"IdleTimeout":          cfg.IdleTimeout,
		"ShutdownTimeout":      cfg.ShutdownTimeout,
		"SlotLockTTL":          cfg.SlotLockTTL,
		"CalendarFetchTimeout": cfg.CalendarFetchTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SlotGranularityMin <= 0 || cfg.SlotGranularityMin > 24*60 {
		errors = append(errors, fmt.Sprintf("SlotGranularityMin must be between 1 and 1440, got: %d", cfg.SlotGranularityMin))
	}
	if cfg.DefaultAppointmentDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultAppointmentDurationMin must be positive, got: %d", cfg.DefaultAppointmentDurationMin))
	}
	if cfg.MaxQueryRangeDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxQueryRangeDays must be positive, got: %d", cfg.MaxQueryRangeDays))
	}
	if cfg.CalendarPaletteSize <= 0 {
		errors = append(errors, fmt.Sprintf("CalendarPaletteSize must be positive, got: %d", cfg.CalendarPaletteSize))
	}

	if cfg.NotifierEnabled && cfg.NotifierTopic == "" {
		errors = append(errors, "NotifierTopic cannot be empty when the notifier is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"slot_granularity_min", cfg.SlotGranularityMin,
		"default_appointment_duration_min", cfg.DefaultAppointmentDurationMin,
		"max_query_range_days", cfg.MaxQueryRangeDays,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"calendar_palette_size", cfg.CalendarPaletteSize,
		"calendar_fetch_timeout", cfg.CalendarFetchTimeout,
		"availability_service_url", cfg.AvailabilityServiceURL,
		"appointments_service_url", cfg.AppointmentsServiceURL,
		"directory_service_url", cfg.DirectoryServiceURL,
		"notifier_enabled", cfg.NotifierEnabled,
		"notifier_topic", cfg.NotifierTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
