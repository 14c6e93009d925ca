package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COURSEAPP_AUTH_SECRET.
const EnvPrefix = "COURSEAPP"

const (
	DriverRedis = "redis"
	DriverMongo = "mongo"
)

// AppConfig is the full courseappd process configuration.
type AppConfig struct {
	Server Server
	Store  Store
	Log    Log
	Auth   Auth
}

// Server holds HTTP listener settings.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MetricsEnabled  bool
}

// Store selects and configures the persistence backend.
type Store struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string
}

// Log configures the process logger.
type Log struct {
	Level  string
	Format string
	Audit  bool
}

// Auth carries the token, session and password policy.
type Auth struct {
	Secret             string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	MaxSessionsPerUser int
	BcryptCost         int
	MinPasswordLength  int
	AllowDuplicate     bool
}

func setDefaults(v *viper.Viper) {
	def := courseapp.DefaultConfig()

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("store.driver", DriverRedis)
	v.SetDefault("store.redis_addr", "127.0.0.1:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "ca")
	v.SetDefault("store.mongo_uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("store.mongo_database", "CourseApp")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.audit", true)

	v.SetDefault("auth.access_ttl", def.JWT.AccessTTL)
	v.SetDefault("auth.refresh_ttl", def.Session.RefreshTTL)
	v.SetDefault("auth.max_sessions_per_user", def.Session.MaxSessionsPerUser)
	v.SetDefault("auth.bcrypt_cost", def.Password.Cost)
	v.SetDefault("auth.min_password_length", def.Password.MinLength)
	v.SetDefault("auth.allow_duplicate", def.Enrollment.AllowDuplicate)
}

// Load reads path (YAML, JSON or TOML by extension) when non-empty, then applies
// COURSEAPP_* environment overrides. A missing path is an error; an empty path
// loads defaults plus environment.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{
		Server: getServerConfig(v),
		Store:  getStoreConfig(v),
		Log:    getLogConfig(v),
		Auth:   getAuthConfig(v),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getServerConfig(v *viper.Viper) Server {
	return Server{
		Addr:            v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		CORSOrigins:     v.GetStringSlice("server.cors_origins"),
		MetricsEnabled:  v.GetBool("server.metrics_enabled"),
	}
}

func getStoreConfig(v *viper.Viper) Store {
	return Store{
		Driver:        strings.ToLower(v.GetString("store.driver")),
		RedisAddr:     v.GetString("store.redis_addr"),
		RedisPassword: v.GetString("store.redis_password"),
		RedisDB:       v.GetInt("store.redis_db"),
		RedisPrefix:   v.GetString("store.redis_prefix"),
		MongoURI:      v.GetString("store.mongo_uri"),
		MongoDatabase: v.GetString("store.mongo_database"),
	}
}

func getLogConfig(v *viper.Viper) Log {
	return Log{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Audit:  v.GetBool("log.audit"),
	}
}

func getAuthConfig(v *viper.Viper) Auth {
	return Auth{
		Secret:             v.GetString("auth.secret"),
		AccessTTL:          v.GetDuration("auth.access_ttl"),
		RefreshTTL:         v.GetDuration("auth.refresh_ttl"),
		MaxSessionsPerUser: v.GetInt("auth.max_sessions_per_user"),
		BcryptCost:         v.GetInt("auth.bcrypt_cost"),
		MinPasswordLength:  v.GetInt("auth.min_password_length"),
		AllowDuplicate:     v.GetBool("auth.allow_duplicate"),
	}
}

// Validate checks process-level settings. Engine policy is checked by
// courseapp.Config.Validate when the engine is built.
func (c *AppConfig) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server shutdown_timeout must be > 0")
	}
	switch c.Store.Driver {
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store redis_addr is required for the redis driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("store mongo_uri and mongo_database are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Auth.Secret == "" {
		return errors.New("auth secret is required")
	}
	return nil
}

// EngineConfig maps the auth section onto the engine policy, keeping engine
// defaults for everything the file does not cover.
func (c *AppConfig) EngineConfig() courseapp.Config {
	cfg := courseapp.DefaultConfig()
	cfg.JWT.Secret = []byte(c.Auth.Secret)
	cfg.JWT.AccessTTL = c.Auth.AccessTTL
	cfg.Session.RefreshTTL = c.Auth.RefreshTTL
	cfg.Session.MaxSessionsPerUser = c.Auth.MaxSessionsPerUser
	cfg.Password.Cost = c.Auth.BcryptCost
	cfg.Password.MinLength = c.Auth.MinPasswordLength
	cfg.Enrollment.AllowDuplicate = c.Auth.AllowDuplicate
	cfg.Audit.Enabled = c.Log.Audit
	cfg.Metrics.Enabled = c.Server.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.Server.MetricsEnabled
	return cfg
}
