package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   Server
	Store    Store
	Backup   Backup
	LogLevel string
}

// Server holds HTTP server related options.
type Server struct {
	Port string
}

// Store holds embedded database options.
type Store struct {
	DataDir string
}

// Backup holds scheduled-backup options. UploadURL is optional; when empty
// backups stay on the local filesystem only.
type Backup struct {
	Dir          string
	CronSchedule string
	UploadURL    string
	ShopName     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: Server{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: Store{
			DataDir: getenvWithDefault("DATA_DIR", "./data"),
		},
		Backup: Backup{
			Dir:          getenvWithDefault("BACKUP_DIR", "./backups"),
			CronSchedule: getenvWithDefault("BACKUP_CRON_SCHEDULE", "0 20 * * *"),
			UploadURL:    os.Getenv("BACKUP_UPLOAD_URL"),
			ShopName:     getenvWithDefault("SHOP_NAME", "Book Shop"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Store.DataDir == "" {
		return errors.New("DATA_DIR must be provided")
	}
	if c.Backup.Dir == "" {
		return errors.New("BACKUP_DIR must be provided")
	}
	if c.Backup.CronSchedule == "" {
		return errors.New("BACKUP_CRON_SCHEDULE must be provided")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
