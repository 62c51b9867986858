package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends for the persisted collections
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// Config holds user preferences
type Config struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`             // Where the database, snapshot and context live
	Storage       string `yaml:"storage" json:"storage"`               // Collection backend: sqlite or file
	AttachmentDSN string `yaml:"attachment_dsn" json:"attachment_dsn"` // Empty for sqlite in DataDir, or a postgres:// URL
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Ask before emptying trash

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	// Local HTTP API
	ServerAddr   string `yaml:"server_addr" json:"server_addr"`       // Listen address for `taskr serve`
	APITokenHash string `yaml:"api_token_hash" json:"api_token_hash"` // bcrypt hash of the bearer token, empty disables auth
}

// Home returns the default data directory (~/.taskr), honouring TASKR_HOME
func Home() string {
	if dir := os.Getenv("TASKR_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskr")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Home()
	return &Config{
		DataDir:       getEnv("TASKR_DATA_DIR", dir),
		Storage:       getEnv("TASKR_STORAGE", StorageSQLite),
		AttachmentDSN: getEnv("TASKR_ATTACHMENT_DSN", ""),
		ConfirmDelete: true,
		LogLevel:      getEnv("TASKR_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("TASKR_LOG_FILE", filepath.Join(dir, "logs", "taskr.log")),
		LogConsole:    getEnv("TASKR_LOG_CONSOLE", "false") == "true",
		ServerAddr:    getEnv("TASKR_SERVER_ADDR", "127.0.0.1:8080"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Path returns the config file location
func Path() string {
	return filepath.Join(Home(), "config.yaml")
}

// Load loads config from ~/.taskr/config.yaml
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile loads config from path, returning defaults when it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageFile:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.Storage, StorageSQLite, StorageFile)
	}
	if c.AttachmentDSN != "" && !c.UsesPostgres() {
		return fmt.Errorf("attachment_dsn must be a postgres:// URL")
	}
	return nil
}

// UsesPostgres reports whether attachments live in PostgreSQL
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.AttachmentDSN, "postgres://") || strings.HasPrefix(c.AttachmentDSN, "postgresql://")
}

// DBPath is the sqlite database inside the data directory
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "taskr.db")
}

// SnapshotPath is the whole-file snapshot used by the file backend
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "data.json")
}

// Save saves config to ~/.taskr/config.yaml
func (c *Config) Save() error {
	return c.SaveFile(Path())
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
