// Package config manages application configuration for the CRC portal API.
//
// Configuration comes from environment variables. A .env file named by
// ENV_FILE (default ".env") is loaded first when it exists; variables that
// are already set are not overridden.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Key variables:
//
//	SERVER_PORT                - HTTP port (default 8080)
//	SERVER_ENV                 - development, production or test
//	LOG_LEVEL                  - debug, info, warn or error
//	CORS_ALLOWED_ORIGINS       - comma separated origins
//	DB_SCHEME, DB_HOST, DB_PORT - SurrealDB endpoint
//	DB_NAMESPACE, DB_DATABASE  - SurrealDB namespace and database
//	DB_USER, DB_PASSWORD       - SurrealDB root credentials
//	ROSTER_RESYNC_INTERVAL     - how often the roster is refetched
//	ROSTER_LOOKUP_CONCURRENCY  - parallel class name lookups
//	ROSTER_MUTATION_TIMEOUT    - bound on one persisted membership change
//	ROSTER_HEARTBEAT_INTERVAL  - SSE heartbeat period
//	IDEMPOTENCY_TTL            - how long Idempotency-Key replays are kept
//	RATE_LIMIT_WRITES, RATE_LIMIT_WINDOW, RATE_LIMIT_BURST
package config
