package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string        `env:"HIRELOG_ADDR" envDefault:":8080"`
	JWTSigningKey string        `env:"HIRELOG_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	AdminToken    string        `env:"HIRELOG_ADMIN_TOKEN"`
	Timeout       time.Duration `env:"HIRELOG_REQUEST_TIMEOUT" envDefault:"30s"`
}

// DB captures PostgreSQL configuration. An empty URL selects the in-memory
// store, which keeps local development and unit tests database-free.
type DB struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// Redis captures the optional summary cache backend. Empty URL disables it.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	SummaryTTL   time.Duration `env:"REDIS_SUMMARY_TTL" envDefault:"30s"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka captures the optional event mirror. Empty broker list disables it.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_ACTIVITY_TOPIC" envDefault:"hirelog.activity"`
	Inbox   int      `env:"KAFKA_MIRROR_INBOX" envDefault:"256"`
}

// Config is the full service configuration.
type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	Kafka  Kafka
}

// Load parses configuration from environment variables so main stays lean.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
