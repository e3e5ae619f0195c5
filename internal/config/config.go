package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the registrar API.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	FrontendURL       string
	DatabaseDriver    string
	DatabaseURL       string
	StoredProcedures  bool
	DatabaseMaxConns  int
	MongoURI          string
	MongoDatabase     string
	RedisURL          string
	ReportCacheTTL    time.Duration
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	JWTExpiry         time.Duration
	ConnectRetries    int
	ConnectDelay      time.Duration
	AuditQueueSize    int
	AuditWriteTimeout time.Duration
	LogRateLimit      int
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminName     string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SAO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "SAO Registrar API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("frontend.url", "http://localhost:5173")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("mongo.database", "sao_logs")
	v.SetDefault("reports.cache_ttl", "2m")
	v.SetDefault("nats.subject", "sao.audit")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("connect.retries", 5)
	v.SetDefault("connect.delay", "5s")
	v.SetDefault("audit.queue_size", 1024)
	v.SetDefault("audit.write_timeout", "5s")
	v.SetDefault("logs.rate_limit", 120)
	v.SetDefault("seed.admin_name", "Admin User")

	reportTTL, err := parseDuration(v, "reports.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	jwtExpiry, err := parseDuration(v, "jwt.expiry")
	if err != nil {
		return Config{}, err
	}
	connectDelay, err := parseDuration(v, "connect.delay")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := parseDuration(v, "audit.write_timeout")
	if err != nil {
		return Config{}, err
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("database.driver")))
	switch driver {
	case "mysql", "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", driver)
	}

	procedures := driver == "mysql"
	if v.IsSet("database.procedures") {
		procedures = v.GetBool("database.procedures")
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		FrontendURL:       v.GetString("frontend.url"),
		DatabaseDriver:    driver,
		DatabaseURL:       v.GetString("database.url"),
		StoredProcedures:  procedures,
		DatabaseMaxConns:  v.GetInt("database.max_open_conns"),
		MongoURI:          v.GetString("mongo.uri"),
		MongoDatabase:     v.GetString("mongo.database"),
		RedisURL:          v.GetString("redis.url"),
		ReportCacheTTL:    reportTTL,
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTExpiry:         jwtExpiry,
		ConnectRetries:    v.GetInt("connect.retries"),
		ConnectDelay:      connectDelay,
		AuditQueueSize:    v.GetInt("audit.queue_size"),
		AuditWriteTimeout: writeTimeout,
		LogRateLimit:      v.GetInt("logs.rate_limit"),
		SeedAdminEmail:    v.GetString("seed.admin_email"),
		SeedAdminPassword: v.GetString("seed.admin_password"),
		SeedAdminName:     v.GetString("seed.admin_name"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 1
	}

	if cfg.AuditQueueSize <= 0 {
		cfg.AuditQueueSize = 1024
	}

	if cfg.DatabaseMaxConns <= 0 {
		cfg.DatabaseMaxConns = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	parsed, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
