package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	DBDSN    string `yaml:"db_dsn"`
	LogLevel string `yaml:"log_level"`

	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int    `yaml:"max_upload_bytes"`

	Identity IdentityConfig `yaml:"identity"`
	Payments PaymentsConfig `yaml:"payments"`

	RedisURL        string        `yaml:"redis_url"`
	RateLimitMax    int           `yaml:"rate_limit_max"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	TracingEnabled bool `yaml:"tracing_enabled"`
}

// IdentityConfig selects how bearer tokens are verified. ProjectID + CertsURL
// verify RS256 ID tokens; HMACSecret switches to HS256 for local development.
type IdentityConfig struct {
	ProjectID  string `yaml:"project_id"`
	CertsURL   string `yaml:"certs_url"`
	HMACSecret string `yaml:"hmac_secret"`
}

type PaymentsConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	Currency        string `yaml:"currency"`
}

const defaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

func Defaults() Config {
	return Config{
		Port:            "5000",
		Env:             "production",
		DBDSN:           "medimart.db",
		LogLevel:        "info",
		UploadDir:       "./uploads",
		MaxUploadBytes:  5 << 20,
		Identity:        IdentityConfig{CertsURL: defaultCertsURL},
		Payments:        PaymentsConfig{Currency: "usd"},
		RateLimitMax:    120,
		RateLimitWindow: time.Minute,
	}
}

// Load layers configuration: defaults, then the YAML file named by CONFIG_FILE
// (if any), then environment variables (a local .env file is loaded first).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadBytes = getEnvAsInt("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.Identity.ProjectID = getEnv("IDENTITY_PROJECT_ID", cfg.Identity.ProjectID)
	cfg.Identity.CertsURL = getEnv("IDENTITY_CERTS_URL", cfg.Identity.CertsURL)
	cfg.Identity.HMACSecret = getEnv("IDENTITY_HMAC_SECRET", cfg.Identity.HMACSecret)
	cfg.Payments.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", cfg.Payments.StripeSecretKey)
	cfg.Payments.Currency = getEnv("PAYMENT_CURRENCY", cfg.Payments.Currency)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RateLimitMax = getEnvAsInt("RATE_LIMIT_MAX", cfg.RateLimitMax)
	cfg.RateLimitWindow = getEnvAsDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.TracingEnabled = getEnvAsBool("TRACING_ENABLED", cfg.TracingEnabled)
	return cfg, nil
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Fields returns the non-secret settings for the startup log line.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("env", c.Env),
		zap.String("db_dsn", c.DBDSN),
		zap.String("upload_dir", c.UploadDir),
		zap.Bool("redis", c.RedisURL != ""),
		zap.Bool("tracing", c.TracingEnabled),
		zap.Bool("identity_hmac", c.Identity.HMACSecret != ""),
		zap.Bool("stripe", c.Payments.StripeSecretKey != ""),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return def
}
