package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Workforce     WorkforceConfig     `mapstructure:"workforce"`
	Registration  RegistrationConfig  `mapstructure:"registration"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// WorkforceConfig points the API client at the external workforce platform.
type WorkforceConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIURL      string        `mapstructure:"api_url"`
	AccessToken string        `mapstructure:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LocationIDs []int64       `mapstructure:"location_ids"`
}

type RegistrationConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	AutoApprove        bool          `mapstructure:"auto_approve"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	MinPasswordLength  int           `mapstructure:"min_password_length"`
	NotificationEmail  string        `mapstructure:"notification_email"`
	DefaultCountryCode string        `mapstructure:"default_country_code"`
}

type SyncConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type MailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Domain    string `mapstructure:"domain"`
	APIKey    string `mapstructure:"api_key"`
	APIBase   string `mapstructure:"api_base"`
	FromName  string `mapstructure:"from_name"`
	FromEmail string `mapstructure:"from_email"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- DEFAULTS -----------------

func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Workforce.BaseURL == "" {
		c.Workforce.BaseURL = "https://my.workforce.com"
	}
	if c.Workforce.APIURL == "" {
		c.Workforce.APIURL = c.Workforce.BaseURL + "/api/v2/"
	}
	if c.Workforce.Timeout == 0 {
		c.Workforce.Timeout = 30 * time.Second
	}
	if c.Registration.RateLimit == 0 {
		c.Registration.RateLimit = 50
	}
	if c.Registration.RateLimitWindow == 0 {
		c.Registration.RateLimitWindow = time.Hour
	}
	if c.Registration.SessionTTL == 0 {
		c.Registration.SessionTTL = 10 * time.Minute
	}
	if c.Registration.MinPasswordLength == 0 {
		c.Registration.MinPasswordLength = 8
	}
	if c.Registration.DefaultCountryCode == "" {
		c.Registration.DefaultCountryCode = "44"
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 24 * time.Hour
	}
	if c.Security.AccessTokenDuration == 0 {
		c.Security.AccessTokenDuration = 15 * time.Minute
	}
	if c.Security.RefreshTokenDuration == 0 {
		c.Security.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Workforce.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("workforce config: %v", err))
	}

	if err := c.Registration.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("registration config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout != 0 && c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access_token_secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh_token_secret must be at least 32 characters")
	}
	if c.BCryptCost != 0 && (c.BCryptCost < 10 || c.BCryptCost > 15) {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	return nil
}

func (c *WorkforceConfig) Validate() error {
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
	}
	return nil
}

func (c *RegistrationConfig) Validate() error {
	if c.RateLimit < 0 || c.RateLimit > 1000 {
		return errors.New("rate_limit must be between 1 and 1000")
	}
	if c.DefaultCountryCode != "" {
		for _, r := range c.DefaultCountryCode {
			if r < '0' || r > '9' {
				return errors.New("default_country_code must be digits only")
			}
		}
	}
	return nil
}

func (c *MailConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Domain == "" || c.APIKey == "" {
		return errors.New("domain and api_key are required when mail is enabled")
	}
	if c.FromEmail == "" {
		return errors.New("from_email is required when mail is enabled")
	}
	return nil
}
