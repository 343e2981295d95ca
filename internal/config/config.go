package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Channels []string       `yaml:"channels"`
	Database DatabaseConfig `yaml:"database"`
	Paths    PathsConfig    `yaml:"paths"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	DBT      DBTConfig      `yaml:"dbt"`
	Detector DetectorConfig `yaml:"detector"`
	Schedule string         `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
}

// TelegramConfig contains the MTProto client credentials.
type TelegramConfig struct {
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	Phone       string `yaml:"phone"`
	SessionFile string `yaml:"session_file"`
}

// DatabaseConfig contains configuration for the database connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// PathsConfig locates the raw data lake and the enrichment output.
type PathsConfig struct {
	RawMessages   string `yaml:"raw_messages"`
	RawImages     string `yaml:"raw_images"`
	DetectionsCSV string `yaml:"detections_csv"`
	Migrations    string `yaml:"migrations"`
}

// ScraperConfig tunes the ingestion stage.
type ScraperConfig struct {
	MessageLimit int `yaml:"message_limit"`
}

// DBTConfig locates the dbt project that builds the marts schema.
type DBTConfig struct {
	Bin        string `yaml:"bin"`
	ProjectDir string `yaml:"project_dir"`
}

// DetectorConfig points at the object detection service.
type DetectorConfig struct {
	URL                 string  `yaml:"url"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// ServerConfig holds the analytics API listen settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoadConfig reads configuration from the specified YAML file. Secrets may be
// overridden from the environment so they can live in .env instead of the
// config file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Telegram.APIID = id
		}
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		cfg.Telegram.APIHash = v
	}
	if v := os.Getenv("TELEGRAM_PHONE"); v != "" {
		cfg.Telegram.Phone = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.SessionFile == "" {
		cfg.Telegram.SessionFile = "session.json"
	}
	if cfg.Scraper.MessageLimit == 0 {
		cfg.Scraper.MessageLimit = 100
	}
	if cfg.Paths.Migrations == "" {
		cfg.Paths.Migrations = "migrations"
	}
	if cfg.DBT.Bin == "" {
		cfg.DBT.Bin = "dbt"
	}
	if cfg.Detector.ConfidenceThreshold == 0 {
		cfg.Detector.ConfidenceThreshold = 0.3
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 2 * * *"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
}
