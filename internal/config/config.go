package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ProviderConfig struct {
	// "local" runs the in-process credential store (dev/test),
	// "http" talks to the hosted auth provider.
	Mode      string `yaml:"mode"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
	Timeout   time.Duration
}

// UnmarshalYAML accepts the timeout as a Go duration string ("10s").
func (p *ProviderConfig) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Mode      string `yaml:"mode"`
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		JWTSecret string `yaml:"jwt_secret"`
		Timeout   string `yaml:"timeout"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	p.Mode, p.BaseURL, p.APIKey, p.JWTSecret = raw.Mode, raw.BaseURL, raw.APIKey, raw.JWTSecret
	return parseDuration(raw.Timeout, &p.Timeout)
}

type VerificationConfig struct {
	CodeTTL        time.Duration
	ResetTokenTTL  time.Duration
	ResendCooldown time.Duration
	AlertAttempts  int // failed attempts before an ops alert fires
}

func (v *VerificationConfig) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		CodeTTL        string `yaml:"code_ttl"`
		ResetTokenTTL  string `yaml:"reset_token_ttl"`
		ResendCooldown string `yaml:"resend_cooldown"`
		AlertAttempts  int    `yaml:"alert_attempts"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	v.AlertAttempts = raw.AlertAttempts
	if err := parseDuration(raw.CodeTTL, &v.CodeTTL); err != nil {
		return err
	}
	if err := parseDuration(raw.ResetTokenTTL, &v.ResetTokenTTL); err != nil {
		return err
	}
	return parseDuration(raw.ResendCooldown, &v.ResendCooldown)
}

func parseDuration(s string, out *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*out = d
	return nil
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Provider     ProviderConfig     `yaml:"provider"`
	Verification VerificationConfig `yaml:"verification"`
	Telegram     TelegramConfig     `yaml:"telegram"`
}

func LoadConfig() *Config {
	path := os.Getenv("VENUEBOOK_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Provider.Mode == "" {
		c.Provider.Mode = "local"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Verification.CodeTTL <= 0 {
		c.Verification.CodeTTL = 10 * time.Minute
	}
	if c.Verification.ResetTokenTTL <= 0 {
		c.Verification.ResetTokenTTL = 1 * time.Hour
	}
	if c.Verification.ResendCooldown <= 0 {
		c.Verification.ResendCooldown = 60 * time.Second
	}
	if c.Verification.AlertAttempts <= 0 {
		c.Verification.AlertAttempts = 5
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
}
