// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for the run archive (always absolute)
	Port          int
	DevMode       bool
	LogLevel      string
	MaxQubits     int // Upper bound on circuit width; state size grows as 2^n
	MaxShots      int // Upper bound on sampling shots per run
	RetentionDays int // Archived runs older than this are pruned; 0 disables pruning
	Remote        *RemoteConfig
	Backup        *BackupConfig
}

// RemoteConfig holds settings for the remote execution backend client
type RemoteConfig struct {
	URL            string // Base URL of the remote service; empty disables the backend
	APIKey         string
	TimeoutSeconds int
}

// BackupConfig holds settings for scheduled archive backups to
// S3-compatible storage. Explicit keys override the standard AWS
// environment/credential chain, which S3-compatible providers like
// MinIO or R2 usually need.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Endpoint  string // Custom endpoint for S3-compatible providers; empty uses AWS
	Region    string
	AccessKey string
	SecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QLENS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("QLENS_PORT", 8090),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MaxQubits:     getEnvAsInt("QLENS_MAX_QUBITS", 12),
		MaxShots:      getEnvAsInt("QLENS_MAX_SHOTS", 65536),
		RetentionDays: getEnvAsInt("QLENS_RETENTION_DAYS", 30),
		Remote: &RemoteConfig{
			URL:            getEnv("QLENS_REMOTE_URL", ""),
			APIKey:         getEnv("QLENS_REMOTE_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("QLENS_REMOTE_TIMEOUT", 30),
		},
		Backup: &BackupConfig{
			Enabled:   getEnvAsBool("QLENS_BACKUP_ENABLED", false),
			Bucket:    getEnv("QLENS_BACKUP_BUCKET", ""),
			Prefix:    getEnv("QLENS_BACKUP_PREFIX", "qlens"),
			Endpoint:  getEnv("QLENS_BACKUP_ENDPOINT", ""),
			Region:    getEnv("QLENS_BACKUP_REGION", "auto"),
			AccessKey: getEnv("QLENS_BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("QLENS_BACKUP_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	// The statevector grows as 2^n complex amplitudes and the density
	// path as 4^n entries, so the width cap guards service memory.
	if c.MaxQubits < 1 || c.MaxQubits > 20 {
		return fmt.Errorf("max qubits must be between 1 and 20, got %d", c.MaxQubits)
	}

	if c.MaxShots < 1 {
		return fmt.Errorf("max shots must be positive, got %d", c.MaxShots)
	}

	if c.RetentionDays < 0 {
		return fmt.Errorf("retention days must be non-negative, got %d", c.RetentionDays)
	}

	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup enabled but no bucket configured")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
