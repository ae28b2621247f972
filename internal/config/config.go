package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const appDirName = "ResumeScreening"

// Config holds application configuration
type Config struct {
	APIBaseURL            string `json:"api_base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	PerPage               int    `json:"per_page"`
	DashboardPerPage      int    `json:"dashboard_per_page"`
	AnalysesPerPage       int    `json:"analyses_per_page"`
	RankingsLimit         int    `json:"rankings_limit"`
	AutoRefresh           string `json:"auto_refresh"` // cron spec, empty disables
	ExportDir             string `json:"export_dir"`
	UploadsDir            string `json:"uploads_dir"`
	GmailCredentialsPath  string `json:"gmail_credentials_path"`
	GmailTokenPath        string `json:"gmail_token_path"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:            "http://localhost:5000/api",
		RequestTimeoutSeconds: 30,
		PerPage:               10,
		DashboardPerPage:      5,
		AnalysesPerPage:       50,
		RankingsLimit:         50,
		ExportDir:             "exports",
		UploadsDir:            "uploads",
		GmailTokenPath:        "token.json",
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/ResumeScreening/config.json
// On Unix: ~/.config/ResumeScreening/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), appDirName)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", appDirName)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the default config file, then applies .env and environment
// overrides
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}

	LoadDotEnv()
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. It reports whether a file was read.
func LoadDotEnv(paths ...string) bool {
	if err := godotenv.Load(paths...); err != nil {
		return false
	}
	return true
}

// ApplyEnv overrides file values with API_BASE_URL, REQUEST_TIMEOUT_SECONDS,
// AUTO_REFRESH, EXPORT_DIR and GMAIL_CREDENTIALS_PATH when set
func (c *Config) ApplyEnv() {
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.RequestTimeoutSeconds = getEnvInt("REQUEST_TIMEOUT_SECONDS", c.RequestTimeoutSeconds)
	c.AutoRefresh = getEnv("AUTO_REFRESH", c.AutoRefresh)
	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.GmailCredentialsPath = getEnv("GMAIL_CREDENTIALS_PATH", c.GmailCredentialsPath)
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if c.APIBaseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "api_base_url", Message: fmt.Sprintf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)}
	}

	if c.RequestTimeoutSeconds <= 0 {
		return &ConfigError{Field: "request_timeout_seconds", Message: "request_timeout_seconds must be positive"}
	}

	for field, v := range map[string]int{
		"per_page":           c.PerPage,
		"dashboard_per_page": c.DashboardPerPage,
		"analyses_per_page":  c.AnalysesPerPage,
	} {
		if v < 1 || v > 100 {
			return &ConfigError{Field: field, Message: fmt.Sprintf("%s must be between 1 and 100", field)}
		}
	}

	if c.AutoRefresh != "" {
		if _, err := cron.ParseStandard(c.AutoRefresh); err != nil {
			return &ConfigError{Field: "auto_refresh", Message: fmt.Sprintf("auto_refresh is not a valid schedule: %v", err)}
		}
	}

	if c.GmailCredentialsPath != "" {
		if _, err := os.Stat(c.GmailCredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file not found: %w", err)
		}
	}

	return nil
}

// RequestTimeout returns the HTTP timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
