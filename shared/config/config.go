package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	AI        AIConfig        `yaml:"ai"`
	YouTube   YouTubeConfig   `yaml:"youtube"`
	Batch     BatchConfig     `yaml:"batch"`
	Server    ServerConfig    `yaml:"server"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Email     EmailConfig     `yaml:"email"`
	Logging   LoggingConfig   `yaml:"logging"`
	Schedule  string          `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey   string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string        `yaml:"model"`
	SearchModel    string        `yaml:"search_model"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// YouTubeConfig enables metadata verification through the YouTube Data API.
// Either an API key or an OAuth client (device flow) may be configured.
type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

// Enabled reports whether any YouTube credentials are configured.
func (y YouTubeConfig) Enabled() bool {
	return y.APIKey != "" || (y.ClientID != "" && y.ClientSecret != "")
}

type BatchConfig struct {
	MaxURLs   int           `yaml:"max_urls"`
	ItemDelay time.Duration `yaml:"item_delay"`
	Lanes     int           `yaml:"lanes"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type WatchlistConfig struct {
	URLs      []string `yaml:"urls"`
	Feeds     []string `yaml:"feeds"`
	FeedItems int      `yaml:"feed_items"`
}

// Empty reports whether nothing is configured for scheduled imports.
func (w WatchlistConfig) Empty() bool {
	return len(w.URLs) == 0 && len(w.Feeds) == 0
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether digest emails should be sent.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format"`
}

// Load reads the configuration from path. An empty path falls back to
// CONFIG_FILE and then config.yaml; a missing default file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigFile
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// env-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.SearchModel == "" {
		c.AI.SearchModel = c.AI.Model
	}
	if c.AI.MaxRetries == 0 {
		c.AI.MaxRetries = 3
	}
	if c.AI.InitialBackoff == 0 {
		c.AI.InitialBackoff = 2 * time.Second
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Batch.MaxURLs == 0 {
		c.Batch.MaxURLs = 10
	}
	if c.Batch.ItemDelay == 0 {
		c.Batch.ItemDelay = time.Second
	}
	if c.Batch.Lanes == 0 {
		c.Batch.Lanes = 1
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Watchlist.FeedItems == 0 {
		c.Watchlist.FeedItems = 3
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", c.AI.MaxRetries)
	}
	if c.Batch.MaxURLs < 1 {
		return fmt.Errorf("batch.max_urls must be at least 1, got %d", c.Batch.MaxURLs)
	}
	if c.Batch.Lanes < 1 {
		return fmt.Errorf("batch.lanes must be at least 1, got %d", c.Batch.Lanes)
	}
	if c.Batch.ItemDelay < 0 {
		return fmt.Errorf("batch.item_delay must not be negative")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric (set PORT or server.port), got %q", c.Server.Port)
	}
	if c.Email.Enabled() {
		if c.Email.Username == "" {
			return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
		}
		if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
			return fmt.Errorf("email.from_email and email.to_email are required when email is enabled")
		}
	}
	if c.Schedule != "" {
		if _, err := cron.NewParser(cronFields).Parse(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// cronFields matches the scheduler's cron.WithSeconds() parser.
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
