package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	Issuer   string   // Issuer claim for tokens (default: http://localhost:8080)
	Audience []string // Audience claim, comma separated in the env (default: tollgate)

	Algorithm           string        // JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits             int           // RSA key size for RS256 (default: 2048)
	KeyRotationInterval time.Duration // Maximum age of the active signing key (default: 24h)
	KeyGracePeriod      time.Duration // How long retired keys verify, >= rotation interval (default: 48h)
	MasterKeyPath       string        // Master key file sealing private keys at rest (default: ./data/master.key)

	AccessTokenTTL     time.Duration // default: 15m
	RefreshTokenTTL    time.Duration // default: 720h
	RefreshMaxLifetime time.Duration // Absolute lifetime of a refresh chain (default: 2160h)

	Argon2     cryptox.Params // Password hashing cost (default: m=19456,t=2,p=1)
	PepperFile string         // Password pepper file (default: ./data/pepper)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./data/auth.db)
	DatabaseURL    string // Postgres DSN

	RevocationBackend string // sql or redis (default: sql)
	RedisAddr         string // default: localhost:6379
	RedisPassword     string
	RedisDB           int

	BootstrapUsername string // Optional: admin created on first start
	BootstrapPassword string

	Env                  string        // Environment (development, staging, production) (default: development)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 15s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "http://localhost:8080"),
		Audience: splitList(getEnvOrDefault("AUTH_AUDIENCE", "tollgate")),

		Algorithm:           getEnvOrDefault("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA),
		RSABits:             getEnvIntOrDefault("AUTH_RSA_BITS", 2048),
		KeyRotationInterval: getEnvDurationOrDefault("AUTH_KEY_ROTATION_INTERVAL", 24*time.Hour),
		KeyGracePeriod:      getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 48*time.Hour),
		MasterKeyPath:       getEnvOrDefault("AUTH_MASTER_KEY_PATH", "./data/master.key"),

		AccessTokenTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:    getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		RefreshMaxLifetime: getEnvDurationOrDefault("AUTH_REFRESH_MAX_LIFETIME", 90*24*time.Hour),

		Argon2: cryptox.Params{
			Memory:      uint32(getEnvIntOrDefault("AUTH_ARGON2_MEMORY", int(cryptox.DefaultParams.Memory))),
			Time:        uint32(getEnvIntOrDefault("AUTH_ARGON2_TIME", int(cryptox.DefaultParams.Time))),
			Parallelism: uint8(getEnvIntOrDefault("AUTH_ARGON2_PARALLELISM", int(cryptox.DefaultParams.Parallelism))),
		},
		PepperFile: getEnvOrDefault("AUTH_PEPPER_FILE", "./data/pepper"),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "./data/auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),

		RevocationBackend: strings.ToLower(getEnvOrDefault("AUTH_REVOCATION_BACKEND", BackendSQL)),
		RedisAddr:         getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:           getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		BootstrapUsername: os.Getenv("AUTH_BOOTSTRAP_USERNAME"),
		BootstrapPassword: os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "development"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 15*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER must not be empty"))
	}
	if len(c.Audience) == 0 {
		errs = append(errs, errors.New("AUTH_AUDIENCE must name at least one audience"))
	}
	if !slices.Contains(jwtx.SupportedAlgorithms, c.Algorithm) {
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM %q is not one of %v", c.Algorithm, jwtx.SupportedAlgorithms))
	}
	if c.KeyRotationInterval <= 0 {
		errs = append(errs, errors.New("AUTH_KEY_ROTATION_INTERVAL must be positive"))
	}
	if c.KeyGracePeriod < c.KeyRotationInterval {
		errs = append(errs, fmt.Errorf("AUTH_KEY_GRACE_PERIOD (%s) must be at least AUTH_KEY_ROTATION_INTERVAL (%s)",
			c.KeyGracePeriod, c.KeyRotationInterval))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RefreshMaxLifetime < c.RefreshTokenTTL {
		errs = append(errs, errors.New("AUTH_REFRESH_MAX_LIFETIME must be at least AUTH_REFRESH_TOKEN_TTL"))
	}
	if err := c.Argon2.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE must not be empty"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_DATABASE_DRIVER %q is not sqlite or postgres", c.DatabaseDriver))
	}

	switch c.RevocationBackend {
	case BackendSQL:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("AUTH_REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_REVOCATION_BACKEND %q is not sql or redis", c.RevocationBackend))
	}

	if (c.BootstrapUsername == "") != (c.BootstrapPassword == "") {
		errs = append(errs, errors.New("AUTH_BOOTSTRAP_USERNAME and AUTH_BOOTSTRAP_PASSWORD must be set together"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
