package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	API     APIConfig     `yaml:"api" envconfig:"API"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
}

// APIConfig contains Warcraft Logs API access configuration
type APIConfig struct {
	ClientID     string        `yaml:"client_id" envconfig:"CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	TokenURL     string        `yaml:"token_url" envconfig:"TOKEN_URL" default:"https://www.warcraftlogs.com/oauth/token"`
	GraphQLURL   string        `yaml:"graphql_url" envconfig:"GRAPHQL_URL" default:"https://www.warcraftlogs.com/api/v2/client"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
}

// FetchConfig tunes provider request behavior
type FetchConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"10"`
	PageLimit      int     `yaml:"page_limit" envconfig:"PAGE_LIMIT" default:"100"`
	Concurrency    int     `yaml:"concurrency" envconfig:"CONCURRENCY" default:"1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/northstar.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	ConfigDir  string `yaml:"config_dir" envconfig:"CONFIG_DIR" default:"config"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("NORTHSTAR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// The original tool kept credentials in WCL_* variables; honor them
	// when the prefixed names are unset.
	if cfg.API.ClientID == "" {
		cfg.API.ClientID = os.Getenv("WCL_CLIENT_ID")
	}
	if cfg.API.ClientSecret == "" {
		cfg.API.ClientSecret = os.Getenv("WCL_CLIENT_SECRET")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.API.ClientID == "" {
		envConfig.API.ClientID = fileConfig.API.ClientID
	}
	if envConfig.API.ClientSecret == "" {
		envConfig.API.ClientSecret = fileConfig.API.ClientSecret
	}
	if envConfig.API.TokenURL == defaultTokenURL && fileConfig.API.TokenURL != "" {
		envConfig.API.TokenURL = fileConfig.API.TokenURL
	}
	if envConfig.API.GraphQLURL == defaultGraphQLURL && fileConfig.API.GraphQLURL != "" {
		envConfig.API.GraphQLURL = fileConfig.API.GraphQLURL
	}
	if fileConfig.API.Timeout != 0 && envConfig.API.Timeout == 30*time.Second {
		envConfig.API.Timeout = fileConfig.API.Timeout
	}
	if fileConfig.Fetch.RateLimitRPS != 0 && envConfig.Fetch.RateLimitRPS == 5 {
		envConfig.Fetch.RateLimitRPS = fileConfig.Fetch.RateLimitRPS
	}
	if fileConfig.Fetch.RateLimitBurst != 0 && envConfig.Fetch.RateLimitBurst == 10 {
		envConfig.Fetch.RateLimitBurst = fileConfig.Fetch.RateLimitBurst
	}
	if fileConfig.Fetch.PageLimit != 0 && envConfig.Fetch.PageLimit == 100 {
		envConfig.Fetch.PageLimit = fileConfig.Fetch.PageLimit
	}
	if fileConfig.Fetch.Concurrency != 0 && envConfig.Fetch.Concurrency == 1 {
		envConfig.Fetch.Concurrency = fileConfig.Fetch.Concurrency
	}
	if fileConfig.Logging.Level != "" && envConfig.Logging.Level == "info" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && envConfig.Logging.Output == "console" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Paths.DataDir != "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if fileConfig.Paths.ReportsDir != "" {
		envConfig.Paths.ReportsDir = fileConfig.Paths.ReportsDir
	}
	if fileConfig.Paths.ConfigDir != "" {
		envConfig.Paths.ConfigDir = fileConfig.Paths.ConfigDir
	}
	if fileConfig.Paths.LogsDir != "" {
		envConfig.Paths.LogsDir = fileConfig.Paths.LogsDir
	}

	return envConfig
}

// validate checks configuration invariants that do not depend on the
// request being run. Credentials are checked lazily by the API client so
// commands that never touch the provider still work.
func (c *Config) validate() error {
	if c.API.TokenURL == "" {
		return fmt.Errorf("api token URL must not be empty")
	}
	if c.API.GraphQLURL == "" {
		return fmt.Errorf("api graphql URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Fetch.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %f", c.Fetch.RateLimitRPS)
	}
	if c.Fetch.PageLimit <= 0 || c.Fetch.PageLimit > maxReportPageLimit {
		return fmt.Errorf("page limit must be in (0, %d], got %d", maxReportPageLimit, c.Fetch.PageLimit)
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got %d", c.Fetch.Concurrency)
	}
	return nil
}

// getConfigFilePath returns the path of the optional YAML config file.
// NORTHSTAR_CONFIG_FILE overrides the default northstar.yaml next to the
// working directory.
func getConfigFilePath() string {
	if path := os.Getenv("NORTHSTAR_CONFIG_FILE"); path != "" {
		return path
	}
	return "northstar.yaml"
}
