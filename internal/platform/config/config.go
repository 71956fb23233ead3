package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "splitledger/pkg/platform/strings"
)

// Server captures process-level configuration. Everything is loaded once at
// startup; nothing in the codebase branches on ambient environment state.
type Server struct {
	Addr string

	// JWTSigningKey signs session tokens. Empty is fatal at startup: the
	// process must not serve authentication with an unset key.
	JWTSigningKey string
	TokenIssuer   string

	// Session token lifetimes. Fixed at issuance, never extended.
	SessionTTL  time.Duration
	RememberTTL time.Duration

	// PostgresDSN selects the Postgres-backed stores; empty falls back to the
	// in-memory stores (dev mode).
	PostgresDSN string

	// RedisURL selects the Redis revocation store; empty falls back to memory.
	RedisURL string

	// KafkaBrokers enables the security-event mirror when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// AuditWriteTimeout bounds how long a login waits on the audit store
	// before degrading to "attempt not logged".
	AuditWriteTimeout time.Duration

	// LogLogins controls whether individual login attempts are logged.
	// Explicit flag, not an environment-name switch.
	LogLogins bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("SPLITLEDGER_ADDR", ":8080"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
		TokenIssuer:       envOr("TOKEN_ISSUER", "splitledger"),
		SessionTTL:        envDuration("SESSION_TTL", 24*time.Hour),
		RememberTTL:       envDuration("REMEMBER_TTL", 7*24*time.Hour),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaTopic:        envOr("KAFKA_SECURITY_TOPIC", "security.login-attempts"),
		AuditWriteTimeout: envDuration("AUDIT_WRITE_TIMEOUT", 2*time.Second),
		LogLogins:         envBool("LOG_LOGINS", true),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = pstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
