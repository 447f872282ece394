// Package config loads runtime settings from .env, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile  = "config/finbot.yaml"
	DefaultFilingsRoot = "sec-edgar-filings"
	DefaultUserAgent   = "finbot/1.0 (contact@example.com)"
)

// ErrNoDatabase means neither DATABASE_URL nor DB_HOST is configured.
var ErrNoDatabase = errors.New("database not configured: set DATABASE_URL or DB_HOST")

type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	FilingsRoot string         `yaml:"filings_root"`
	SEC         SECConfig      `yaml:"sec"`
	LLM         LLMConfig      `yaml:"llm"`
	Log         LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type SECConfig struct {
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// LLMConfig selects the summarizer model. API keys come only from the
// environment.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Concurrency    int    `yaml:"concurrency"`
	DeepSeekAPIKey string `yaml:"-"`
	GeminiAPIKey   string `yaml:"-"`
	QwenAPIKey     string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Database:    DatabaseConfig{Port: 3306},
		FilingsRoot: DefaultFilingsRoot,
		SEC: SECConfig{
			UserAgent:         DefaultUserAgent,
			RequestsPerSecond: 8,
		},
		LLM: LLMConfig{
			Provider:    "deepseek",
			Concurrency: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if present), then CONFIG_FILE (default
// config/finbot.yaml, optional), then environment overrides.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	path := getenv("CONFIG_FILE", DefaultConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.FilingsRoot, "FILINGS_ROOT")
	setString(&c.SEC.UserAgent, "SEC_USER_AGENT")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.DeepSeekAPIKey, "DEEPSEEK_API_KEY")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	// DASHSCOPE_API_KEY wins over QWEN_API_KEY.
	setString(&c.LLM.QwenAPIKey, "QWEN_API_KEY")
	setString(&c.LLM.QwenAPIKey, "DASHSCOPE_API_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.LLM.Concurrency, "LLM_CONCURRENCY"); err != nil {
		return err
	}
	if c.LLM.Concurrency < 1 {
		c.LLM.Concurrency = 1
	}
	return nil
}

// DSN returns the database connection string: DATABASE_URL as given, or a
// MySQL DSN assembled from the DB_* settings.
func (c *Config) DSN() (string, error) {
	if c.Database.URL != "" {
		return c.Database.URL, nil
	}
	if c.Database.Host == "" {
		return "", ErrNoDatabase
	}

	m := mysql.NewConfig()
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	m.User = c.Database.User
	m.Passwd = c.Database.Password
	m.DBName = c.Database.Name
	m.ParseTime = true
	return m.FormatDSN(), nil
}

// APIKey returns the key for the configured LLM provider.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case "gemini":
		return c.LLM.GeminiAPIKey
	case "qwen":
		return c.LLM.QwenAPIKey
	default:
		return c.LLM.DeepSeekAPIKey
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
