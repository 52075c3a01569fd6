// Package config loads service configuration from a YAML file with
// environment variable overrides. A .env file, if present, is loaded
// first so secrets can live there locally and in real env vars in
// production.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Signup SignupConfig `yaml:"signup"`
	Mail   MailConfig   `yaml:"mail"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// GetHost returns the listen host. Containers listen on all interfaces.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SignupConfig holds the signup-flow policy knobs.
type SignupConfig struct {
	// BaseURL is the externally reachable URL verification links point at.
	BaseURL string `yaml:"base_url"`
	// ValiditySeconds is how long a verification link stays valid.
	// Zero means links never expire.
	ValiditySeconds int `yaml:"validity_seconds"`
	// ThrottleSeconds is the per-IP minimum interval between requests.
	ThrottleSeconds int `yaml:"throttle_seconds"`
	// ListPath is the CSV file the subscriber list persists to.
	ListPath string `yaml:"list_path"`
	// DownloadPassword guards the CSV download endpoint. Empty disables it.
	DownloadPassword string `yaml:"download_password"`
}

// Validity returns the link validity window as a duration.
func (c SignupConfig) Validity() time.Duration {
	return time.Duration(c.ValiditySeconds) * time.Second
}

// Throttle returns the per-IP throttle window as a duration.
func (c SignupConfig) Throttle() time.Duration {
	return time.Duration(c.ThrottleSeconds) * time.Second
}

// MailConfig holds the mail transport and the already-resolved template
// strings for the verification email.
type MailConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	Subject        string `yaml:"subject"`
	TextTemplate   string `yaml:"text_template"`
	HTMLTemplate   string `yaml:"html_template"`
}

// Timeout returns the mail transport timeout as a duration.
func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Signup.ThrottleSeconds == 0 {
		cfg.Signup.ThrottleSeconds = 60
	}
	if cfg.Signup.ListPath == "" {
		cfg.Signup.ListPath = "data/list.csv"
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 30
	}
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = "Please confirm your subscription"
	}
	if cfg.Mail.TextTemplate == "" {
		cfg.Mail.TextTemplate = "Hi {{ name }},\n\nplease confirm your subscription:\n{{ link }}\n\n{{ from_name }}"
	}
	if cfg.Mail.HTMLTemplate == "" {
		cfg.Mail.HTMLTemplate = `<p>Hi {{ name }},</p><p><a href="{{ link }}">Please confirm your subscription.</a></p><p>{{ from_name }}</p>`
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SIGNUP_BASE_URL"); v != "" {
		cfg.Signup.BaseURL = v
	}
	if v := os.Getenv("SIGNUP_LIST_PATH"); v != "" {
		cfg.Signup.ListPath = v
	}
	if v := os.Getenv("SIGNUP_DOWNLOAD_PASSWORD"); v != "" {
		cfg.Signup.DownloadPassword = v
	}
	if v := os.Getenv("MAIL_ENDPOINT"); v != "" {
		cfg.Mail.Endpoint = v
	}
	if v := os.Getenv("MAIL_API_KEY"); v != "" {
		cfg.Mail.APIKey = v
	}
	if v := os.Getenv("MAIL_FROM_EMAIL"); v != "" {
		cfg.Mail.FromEmail = v
	}
	if v := os.Getenv("MAIL_FROM_NAME"); v != "" {
		cfg.Mail.FromName = v
	}

	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Signup.BaseURL == "" {
		return fmt.Errorf("signup.base_url is required (the URL verification links point at)")
	}
	if c.Mail.Endpoint == "" {
		return fmt.Errorf("mail.endpoint is required")
	}
	if c.Mail.FromEmail == "" {
		return fmt.Errorf("mail.from_email is required")
	}
	return nil
}
