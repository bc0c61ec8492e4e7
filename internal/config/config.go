package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:3000/api/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultTheme     = "default"
	DefaultCurrency  = "USD"
	DefaultLocale    = "en-US"
)

// Config is the resolved runtime configuration.
type Config struct {
	API     APIConfig
	Logging LoggingConfig
	UI      UIConfig
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// UIConfig configures terminal output.
type UIConfig struct {
	Theme    string
	Filter   model.StatusFilter
	Currency string
	Locale   language.Tag
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.retries", DefaultRetries)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("ui.theme", DefaultTheme)
	v.SetDefault("ui.filter", string(model.StatusActive))
	v.SetDefault("ui.currency", DefaultCurrency)
	v.SetDefault("ui.locale", DefaultLocale)
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	filter, err := model.ParseStatusFilter(v.GetString("ui.filter"))
	if err != nil {
		return nil, fmt.Errorf("%w: ui.filter: %w", common.ErrInvalidConfig, err)
	}

	locale, err := language.Parse(v.GetString("ui.locale"))
	if err != nil {
		return nil, fmt.Errorf("%w: ui.locale: %w", common.ErrInvalidConfig, err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
			Retries: v.GetInt("api.retries"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
		UI: UIConfig{
			Theme:    v.GetString("ui.theme"),
			Filter:   filter,
			Currency: strings.ToUpper(v.GetString("ui.currency")),
			Locale:   locale,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: api.base_url", common.ErrMissingConfig))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: api.base_url %q is not an absolute URL", common.ErrInvalidConfig, c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: api.timeout must be positive", common.ErrInvalidConfig))
	}
	if c.API.Retries < 1 {
		errs = append(errs, fmt.Errorf("%w: api.retries must be at least 1", common.ErrInvalidConfig))
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: logging.level: %w", common.ErrInvalidConfig, err))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format %q (want console or json)", common.ErrInvalidConfig, c.Logging.Format))
	}
	if len(c.UI.Currency) != 3 {
		errs = append(errs, fmt.Errorf("%w: ui.currency %q is not an ISO 4217 code", common.ErrInvalidConfig, c.UI.Currency))
	}

	return errors.Join(errs...)
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored and variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
