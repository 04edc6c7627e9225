package config

import "os"

// ServiceConfig is the minimal environment-sourced configuration every
// cmd/ entry point needs; tuning knobs for consumers live in the
// subscription registry, not here.
type ServiceConfig struct {
	NATSURL          string
	PostgresDSN      string
	RedisAddr        string
	VaultAddress     string
	VaultToken       string
	OTLPEndpoint     string
	SearchBackendURL string
	HTTPAddr         string
}

// FromEnv reads a ServiceConfig from the process environment, applying the
// same defaults the teacher's cmd/api mains use for local development.
func FromEnv() ServiceConfig {
	return ServiceConfig{
		NATSURL:          getenv("NATS_URL", "nats://localhost:4222"),
		PostgresDSN:      getenv("POSTGRES_DSN", "postgres://localhost:5432/ingest_fabric"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		VaultAddress:     getenv("VAULT_ADDR", "http://localhost:8200"),
		VaultToken:       os.Getenv("VAULT_TOKEN"),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		SearchBackendURL: getenv("SEARCH_BACKEND_URL", "http://localhost:8080"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8081"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
