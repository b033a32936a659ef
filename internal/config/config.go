package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the warehouse
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Redis      RedisConfig      `mapstructure:"redis"`
	BlobStore  BlobStoreConfig  `mapstructure:"blobstore"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Export     ExportConfig     `mapstructure:"export"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the relational store. Driver is "postgres" or "sqlite3".
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	// MaxOpenConns applies to postgres only; sqlite always uses one writer.
	MaxOpenConns int  `mapstructure:"max_open_conns"`
	AutoMigrate  bool `mapstructure:"auto_migrate"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// AuthConfig selects the identity provider. Mode is "keycloak" or "jwt".
type AuthConfig struct {
	Mode      string         `mapstructure:"mode"`
	Keycloak  KeycloakConfig `mapstructure:"keycloak"`
	JWTSecret string         `mapstructure:"jwt_secret"`
	AdminRole string         `mapstructure:"admin_role"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// BlobStoreConfig selects where uploaded files live. Driver is "local" or "s3".
type BlobStoreConfig struct {
	Driver           string   `mapstructure:"driver"`
	BasePath         string   `mapstructure:"base_path"`
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
	S3               S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

type MonitoringConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type ExportConfig struct {
	// MaxWindow bounds the time range of a single export; zero disables the check.
	MaxWindow time.Duration `mapstructure:"max_window"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	return load(viper.New(), "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetEnvPrefix("DWH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.sqlite.path", "./data/warehouse.db")
	v.SetDefault("database.sqlite.busy_timeout", "5s")
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "warehouse")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.auto_migrate", true)

	// Auth defaults
	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_role", "admin")
	v.SetDefault("auth.keycloak.url", "")
	v.SetDefault("auth.keycloak.realm", "")
	v.SetDefault("auth.keycloak.client_id", "")
	v.SetDefault("auth.keycloak.client_secret", "")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")

	// Blob store defaults
	v.SetDefault("blobstore.driver", "local")
	v.SetDefault("blobstore.base_path", "./data/files")
	v.SetDefault("blobstore.max_file_size", 512*1024*1024) // 512MB, videos included
	v.SetDefault("blobstore.allowed_mime_types", []string{})
	v.SetDefault("blobstore.s3.bucket", "")
	v.SetDefault("blobstore.s3.region", "")
	v.SetDefault("blobstore.s3.endpoint", "")
	v.SetDefault("blobstore.s3.access_key_id", "")
	v.SetDefault("blobstore.s3.secret_access_key", "")
	v.SetDefault("blobstore.s3.prefix", "")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.metrics_path", "/metrics")

	v.SetDefault("export.max_window", "0s")
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres":
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case "sqlite3":
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	switch config.Auth.Mode {
	case "keycloak":
		if config.Auth.Keycloak.URL == "" {
			return fmt.Errorf("keycloak URL is required")
		}
	case "jwt":
		if config.Auth.JWTSecret == "" {
			return fmt.Errorf("jwt secret is required")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", config.Auth.Mode)
	}

	switch config.BlobStore.Driver {
	case "local":
		if config.BlobStore.BasePath == "" {
			return fmt.Errorf("blobstore base path is required")
		}
	case "s3":
		if config.BlobStore.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
	default:
		return fmt.Errorf("unknown blobstore driver %q", config.BlobStore.Driver)
	}

	if config.Export.MaxWindow < 0 {
		return fmt.Errorf("export max window must not be negative")
	}
	return nil
}
