package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/wanikanji/internal/ankiconnect"
	"github.com/starford/wanikanji/internal/install"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/wanikani"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	WaniKani    WaniKaniConfig    `yaml:"wanikani"`
	AnkiConnect AnkiConnectConfig `yaml:"anki_connect"`
	Cache       CacheConfig       `yaml:"cache"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Kanji       NoteConfig        `yaml:"kanji"`
	Vocabulary  NoteConfig        `yaml:"vocabulary"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app", &c.App},
		{"wanikani", &c.WaniKani},
		{"anki_connect", &c.AnkiConnect},
		{"cache", &c.Cache},
		{"ledger", &c.Ledger},
		{"kanji", &c.Kanji},
		{"vocabulary", &c.Vocabulary},
		{"auth", &c.Auth},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// Notes returns the note settings of variant.
func (c *Config) Notes(variant models.Variant) *NoteConfig {
	if variant == models.VariantVocabulary {
		return &c.Vocabulary
	}
	return &c.Kanji
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
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

// WaniKaniConfig configures the content API client.
type WaniKaniConfig struct {
	APIToken          string        `yaml:"api_token"`
	BaseURL           string        `yaml:"base_url"`
	Revision          string        `yaml:"revision"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Validate validates the WaniKani configuration.
func (c *WaniKaniConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Revision, validation.Required),
		validation.Field(&c.RateLimitCooldown, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RequestsPerMinute, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Required),
	)
}

// AnkiConnectConfig configures the local AnkiConnect endpoint.
type AnkiConnectConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Version  int           `yaml:"version"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// Validate validates the AnkiConnect configuration.
func (c *AnkiConnectConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Version, validation.Required, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Required),
	); err != nil {
		return err
	}
	return c.Retry.Validate()
}

// RetryConfig bounds retries of refused connections during install.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// Validate validates the retry configuration.
func (c *RetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&c.InitialDelay, validation.Required),
		validation.Field(&c.MaxDelay, validation.Min(c.InitialDelay)),
	)
}

// Policy converts the configuration into an install retry policy.
func (c *RetryConfig) Policy() install.RetryPolicy {
	return install.RetryPolicy{
		MaxAttempts:  c.MaxAttempts,
		InitialDelay: c.InitialDelay,
		MaxDelay:     c.MaxDelay,
	}
}

// CacheConfig holds the snapshot cache directory. It is never created
// implicitly.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// LedgerConfig holds the SQLite install ledger path.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NoteConfig names the Anki deck and note type of one variant.
type NoteConfig struct {
	DeckName     string `yaml:"deck_name"`
	ModelName    string `yaml:"model_name"`
	TemplateName string `yaml:"template_name"`
}

// Validate validates the note configuration.
func (c *NoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DeckName, validation.Required),
		validation.Field(&c.ModelName, validation.Required),
		validation.Field(&c.TemplateName, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		WaniKani: WaniKaniConfig{
			BaseURL:           wanikani.DefaultBaseURL,
			Revision:          wanikani.DefaultRevision,
			RateLimitCooldown: wanikani.DefaultCooldown,
			RequestsPerMinute: 60,
			Timeout:           wanikani.DefaultTimeout,
		},
		AnkiConnect: AnkiConnectConfig{
			Endpoint: ankiconnect.DefaultEndpoint,
			Version:  ankiconnect.DefaultVersion,
			Timeout:  ankiconnect.DefaultTimeout,
			Retry: RetryConfig{
				MaxAttempts:  install.DefaultRetryPolicy.MaxAttempts,
				InitialDelay: install.DefaultRetryPolicy.InitialDelay,
				MaxDelay:     install.DefaultRetryPolicy.MaxDelay,
			},
		},
		Cache: CacheConfig{
			Dir: ".cache",
		},
		Ledger: LedgerConfig{
			Path: "wanikanji.db",
		},
		Kanji: NoteConfig{
			DeckName:     "WaniKani Kanji",
			ModelName:    "WaniKani Kanji",
			TemplateName: ankiconnect.DefaultTemplateName,
		},
		Vocabulary: NoteConfig{
			DeckName:     "WaniKani Vocabulary",
			ModelName:    "WaniKani Vocabulary",
			TemplateName: ankiconnect.DefaultTemplateName,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
