/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Configuration
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig `yaml:"http"`

	// SQLite database configuration
	Database DatabaseConfig `yaml:"database"`

	// Bootstrap data ingestion configuration
	Data DataConfig `yaml:"data"`

	// Balance simulation configuration
	Banking BankingConfig `yaml:"banking"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Address string `yaml:"address"` // Listen address (default: :8080)
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"` // Database file path (default: ./banksight.db)
}

// DataConfig holds bootstrap ingestion settings
type DataConfig struct {
	Dir          string `yaml:"dir"`            // Directory holding the source CSV/JSON files (default: ./data)
	BrowseLimit  int    `yaml:"browse_limit"`   // Max rows returned when browsing a table (default: 1000)
	ExportLimit  int    `yaml:"export_limit"`   // Max rows in a table export (default: 100000)
	IngestOnBoot bool   `yaml:"ingest_on_boot"` // Run bootstrap ingestion when the database file is missing (default: true)
}

// BankingConfig holds simulation settings
type BankingConfig struct {
	MinimumBalance float64 `yaml:"minimum_balance"` // Withdrawal floor (default: 1000)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, or error (default: warn)
}

// CLIFlags represents command line flag values and whether they were explicitly set
type CLIFlags struct {
	ConfigFileSet bool
	ConfigFile    string

	HTTPAddr    string
	HTTPAddrSet bool

	DBPath    string
	DBPathSet bool

	DataDir    string
	DataDirSet bool

	LogLevel    string
	LogLevelSet bool
}

// LoadConfig loads configuration with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Hard-coded defaults (lowest priority)
func LoadConfig(configPath string, cliFlags CLIFlags) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath)
		if err != nil {
			// If file was explicitly specified, error out
			if cliFlags.ConfigFileSet {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
			// Otherwise just use defaults (file may not exist and that's ok)
		} else {
			mergeConfig(cfg, fileCfg)
		}
	}

	applyEnvironmentVariables(cfg)
	applyCLIFlags(cfg, cliFlags)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns configuration with hard-coded defaults
func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Path: "./banksight.db",
		},
		Data: DataConfig{
			Dir:          "./data",
			BrowseLimit:  1000,
			ExportLimit:  100000,
			IngestOnBoot: true,
		},
		Banking: BankingConfig{
			MinimumBalance: 1000,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// loadConfigFile reads and parses a YAML configuration file
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// mergeConfig overlays non-zero file values onto the defaults
func mergeConfig(dst, src *Config) {
	if src.HTTP.Address != "" {
		dst.HTTP.Address = src.HTTP.Address
	}
	if src.Database.Path != "" {
		dst.Database.Path = src.Database.Path
	}
	if src.Data.Dir != "" {
		dst.Data.Dir = src.Data.Dir
	}
	if src.Data.BrowseLimit != 0 {
		dst.Data.BrowseLimit = src.Data.BrowseLimit
	}
	if src.Data.ExportLimit != 0 {
		dst.Data.ExportLimit = src.Data.ExportLimit
	}
	if src.Banking.MinimumBalance != 0 {
		dst.Banking.MinimumBalance = src.Banking.MinimumBalance
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}

// applyEnvironmentVariables overrides config with environment variables if they exist.
// All environment variables use the BANKSIGHT_ prefix to avoid collisions.
func applyEnvironmentVariables(cfg *Config) {
	setStringFromEnv(&cfg.HTTP.Address, "BANKSIGHT_HTTP_ADDRESS")
	setStringFromEnv(&cfg.Database.Path, "BANKSIGHT_DB_PATH")
	setStringFromEnv(&cfg.Data.Dir, "BANKSIGHT_DATA_DIR")
	setIntFromEnv(&cfg.Data.BrowseLimit, "BANKSIGHT_BROWSE_LIMIT")
	setIntFromEnv(&cfg.Data.ExportLimit, "BANKSIGHT_EXPORT_LIMIT")
	setFloatFromEnv(&cfg.Banking.MinimumBalance, "BANKSIGHT_MINIMUM_BALANCE")
	setStringFromEnv(&cfg.Logging.Level, "BANKSIGHT_LOG_LEVEL")
}

// applyCLIFlags overrides config with explicitly set command line flags
func applyCLIFlags(cfg *Config, flags CLIFlags) {
	if flags.HTTPAddrSet {
		cfg.HTTP.Address = flags.HTTPAddr
	}
	if flags.DBPathSet {
		cfg.Database.Path = flags.DBPath
	}
	if flags.DataDirSet {
		cfg.Data.Dir = flags.DataDir
	}
	if flags.LogLevelSet {
		cfg.Logging.Level = flags.LogLevel
	}
}

// validateConfig checks the final configuration for usable values
func validateConfig(cfg *Config) error {
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("http.address must not be empty")
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if cfg.Data.BrowseLimit <= 0 {
		return fmt.Errorf("data.browse_limit must be positive, got %d", cfg.Data.BrowseLimit)
	}
	if cfg.Data.ExportLimit <= 0 {
		return fmt.Errorf("data.export_limit must be positive, got %d", cfg.Data.ExportLimit)
	}
	if cfg.Banking.MinimumBalance < 0 {
		return fmt.Errorf("banking.minimum_balance must not be negative, got %v", cfg.Banking.MinimumBalance)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}
	return nil
}

func setStringFromEnv(target *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

func setIntFromEnv(target *int, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setFloatFromEnv(target *float64, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}
