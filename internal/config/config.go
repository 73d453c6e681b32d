package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"` // Bind address, empty for all interfaces.
	Port int    `yaml:"port"` // Listen port.
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // postgres:// URL or a SQLite file path.
}

// RedisConfig holds the optional token revocation store settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port, empty disables redis.
	Password string `yaml:"password"` // Optional password.
	DB       int    `yaml:"db"`       // Logical database index.
}

// JWTConfig holds the access token settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HMAC signing secret.
	ExpiryHours int    `yaml:"expiry-hours"` // Token lifetime in hours.
}

// GatewayConfig holds the payment gateway settings.
type GatewayConfig struct {
	ServerKey  string `yaml:"server-key"` // Midtrans server key, empty disables the gateway.
	Production bool   `yaml:"production"` // Use the production environment.
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // logrus level name, default info.
	Path       string `yaml:"path"`        // Log file path, empty logs to stderr only.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotation size threshold in megabytes.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max-age"`     // Days to keep rotated files.
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Log      LogConfig      `yaml:"log"`
}

// ResolveConfigPath picks the config file location: the explicit argument
// wins, then the CONFIG_PATH environment variable, then config.yaml.
func ResolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "config.yaml"
}

// Load reads the yaml config file and applies environment overrides.
// A missing file is not an error; the environment alone can configure
// everything, which is how container deployments run.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		JWT:    JWTConfig{ExpiryHours: 24},
		Log:    LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}

	data, errRead := os.ReadFile(path)
	if errRead == nil {
		if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
		}
	} else if !os.IsNotExist(errRead) {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	applyEnvOverrides(cfg)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config: database dsn is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt secret is required")
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file for every setting
// that deployments commonly need to inject.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if idx, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = idx
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			cfg.JWT.ExpiryHours = hours
		}
	}
	if v := os.Getenv("MIDTRANS_SERVER_KEY"); v != "" {
		cfg.Gateway.ServerKey = v
	}
	if v := os.Getenv("MIDTRANS_PRODUCTION"); v != "" {
		cfg.Gateway.Production = v == "true" || v == "1"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
