package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvReservationLockTTL = "RESERVATION_LOCK_TTL"

	EnvCompletionSweepInterval = "COMPLETION_SWEEP_INTERVAL"

	EnvAvailabilityCacheTTL  = "AVAILABILITY_CACHE_TTL"
	EnvAvailabilityCacheSize = "AVAILABILITY_CACHE_SIZE"

	EnvReservationEventsTopic = "RESERVATION_EVENTS_TOPIC"
	EnvReservationEventsDLQ   = "RESERVATION_EVENTS_DLQ_TOPIC"
)
