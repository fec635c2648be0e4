package config

import (
	"os"
	"strings"
	"time"
)

// Server captures everything main needs to wire the process. Every field has
// a development default so a bare `go run` works against in-memory backends.
type Server struct {
	Addr string

	// PostgresDSN enables the durable index; empty keeps the in-memory store.
	PostgresDSN string

	// RedisURL enables the existence cache; empty disables caching.
	RedisURL string

	// KafkaBrokers enables the audit trail sink; empty keeps the in-memory
	// audit store.
	KafkaBrokers []string
	AuditTopic   string

	// LedgerNodeURL points at the ledger node's REST surface; empty wires the
	// in-memory ledger for development. The node fronts a single registry
	// contract, so no contract address is configured here.
	LedgerNodeURL string
	Account       string
	Network       string

	ConfirmTimeout time.Duration
	ExistsCacheTTL time.Duration

	// AdminToken guards the admin endpoints; empty leaves them open, for
	// development only.
	AdminToken string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("DOCPROOF_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("DOCPROOF_POSTGRES_DSN"),
		RedisURL:        os.Getenv("DOCPROOF_REDIS_URL"),
		AuditTopic:      envOr("DOCPROOF_AUDIT_TOPIC", "docproof.audit"),
		LedgerNodeURL:   os.Getenv("DOCPROOF_LEDGER_NODE_URL"),
		Account:         os.Getenv("DOCPROOF_ACCOUNT"),
		Network:         envOr("DOCPROOF_NETWORK", "31337"),
		ConfirmTimeout:  durationOr("DOCPROOF_CONFIRM_TIMEOUT", 60*time.Second),
		ExistsCacheTTL:  durationOr("DOCPROOF_EXISTS_CACHE_TTL", 5*time.Minute),
		AdminToken:      os.Getenv("DOCPROOF_ADMIN_TOKEN"),
	}
	if brokers := os.Getenv("DOCPROOF_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
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
