package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "kosbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory locks auto-expire so a crashed writer cannot wedge a unit.
	DefaultReservationLockTTL = 10 * time.Second

	DefaultCompletionSweepInterval = 1 * time.Hour

	DefaultAvailabilityCacheTTL  = 5 * time.Second
	DefaultAvailabilityCacheSize = 4096

	DefaultReservationEventsTopic = "reservation-events"
	DefaultReservationEventsDLQ   = "reservation-events-dlq"

	DefaultPaginationLimit = 100
)
