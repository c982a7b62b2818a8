package config

import (
	"time"

	"playlist-service/internal/domain"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	URL               string        `env:"DATABASE_URL,required,notEmpty"`
	MaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime   time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	MigrationsEnabled bool          `env:"MIGRATIONS_ENABLED" envDefault:"true"`
}

type HTTP struct {
	Port         string   `env:"PORT" envDefault:"8080"`
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
}

type Auth struct {
	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type Detector struct {
	ScanRange time.Duration `env:"DETECTOR_SCAN_RANGE" envDefault:"10m"`
	BurstSize int           `env:"DETECTOR_BURST_SIZE" envDefault:"30"`
	Window    time.Duration `env:"DETECTOR_WINDOW" envDefault:"60s"`
}

func (d Detector) Params() domain.DetectorParams {
	return domain.DetectorParams{
		ScanRange: d.ScanRange,
		BurstSize: d.BurstSize,
		Window:    d.Window,
	}
}

type Logs struct {
	UserSort string `env:"LOG_USER_SORT" envDefault:"id"`
}

type Kafka struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	ActionTopic      string `env:"KAFKA_ACTION_TOPIC" envDefault:"playlist-actions"`
}

func (k Kafka) Enabled() bool {
	return k.BootstrapServers != ""
}

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`
	DB       DB
	HTTP     HTTP
	Auth     Auth
	Detector Detector
	Logs     Logs
	Kafka    Kafka
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Detector.Params().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
