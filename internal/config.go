package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/scheduler"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// ProviderNone turns national holidays off.
const ProviderNone = "none"

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Holidays  HolidaysConfig    `yaml:"holidays"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Metrics   MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Holidays.Validate(); err != nil {
		return fmt.Errorf("holidays: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// HolidaysConfig selects where national holidays come from.
type HolidaysConfig struct {
	Provider string        `yaml:"provider"`
	Country  string        `yaml:"country"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

var errRegion = errors.New("must be an ISO 3166-1 alpha-2 country code")

// isRegion checks the country against the ISO 3166 region table.
var isRegion = validation.By(func(value any) error {
	s, _ := value.(string)
	if len(s) != 2 {
		return errRegion
	}
	r, err := language.ParseRegion(s)
	if err != nil || !r.IsCountry() {
		return errRegion
	}
	return nil
})

// Validate normalises the country to upper case and checks the provider.
func (c *HolidaysConfig) Validate() error {
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	if c.Provider == "" {
		c.Provider = holidays.ProviderNager
	}
	if c.Provider == ProviderNone {
		return nil
	}
	err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(holidays.ProviderNager, holidays.ProviderBuiltin)),
		validation.Field(&c.Country, validation.Required, isRegion),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}
	if c.Provider == holidays.ProviderBuiltin && !holidays.Supports(c.Country) {
		return fmt.Errorf("builtin provider has no calendar for %s", c.Country)
	}
	return nil
}

// SchedulerConfig controls the background jobs.
type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	WarmSpec     string        `yaml:"warm_spec"`
	ReminderSpec string        `yaml:"reminder_spec"`
	ReminderLead time.Duration `yaml:"reminder_lead"`
}

var validCron = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return errors.New("must be a five-field cron expression")
	}
	return nil
})

// Validate checks the cron expressions.
func (c *SchedulerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WarmSpec, validCron),
		validation.Field(&c.ReminderSpec, validCron),
		validation.Field(&c.ReminderLead, validation.Min(time.Duration(0))),
	)
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./almanac.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Holidays: HolidaysConfig{
			Provider: holidays.ProviderNager,
			Country:  "US",
			BaseURL:  holidays.DefaultNagerURL,
			Timeout:  10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			WarmSpec:     scheduler.DefaultWarmSpec,
			ReminderSpec: scheduler.DefaultReminderSpec,
			ReminderLead: scheduler.DefaultReminderLead,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
