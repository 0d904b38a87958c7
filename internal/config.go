package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/mdnotion/internal/watch"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Notion   NotionConfig      `yaml:"notion"`
	Markdown MarkdownConfig    `yaml:"markdown"`
	Ledger   LedgerConfig      `yaml:"ledger"`
	Watch    WatchConfig       `yaml:"watch"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return fmt.Errorf("notion: %w", err)
	}
	if err := c.Markdown.Validate(); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
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

// NotionConfig holds the destination workspace settings.
type NotionConfig struct {
	AuthToken string `yaml:"auth_token"`
	// SyncRootContainer is the database pages are created in. Only pages
	// directly inside it are ever archived.
	SyncRootContainer string `yaml:"sync_root_container"`
	// BaseURL is prefixed to document paths to build each page's URL property.
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	Endpoint   string        `yaml:"endpoint"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Validate validates the Notion configuration and trims BaseURL.
func (c *NotionConfig) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	return validation.ValidateStruct(c,
		validation.Field(&c.AuthToken, validation.Required),
		validation.Field(&c.SyncRootContainer, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Endpoint, is.URL),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// MarkdownConfig locates the markdown tree.
type MarkdownConfig struct {
	Root string `yaml:"root"`
	// StripRoot makes document paths relative to Root instead of
	// including it.
	StripRoot bool `yaml:"strip_root"`
}

// Validate validates the markdown configuration.
func (c *MarkdownConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// PathPrefix returns the prefix joined onto every document path.
func (c *MarkdownConfig) PathPrefix() string {
	if c.StripRoot {
		return ""
	}
	return c.Root
}

// LedgerConfig holds the SQLite run ledger location. An empty path disables
// the ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
	// DetectBodyChanges rewrites a page whose recorded content checksum no
	// longer matches, even when its properties are unchanged.
	DetectBodyChanges bool `yaml:"detect_body_changes"`
}

// Enabled reports whether runs are recorded.
func (c *LedgerConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// Schedule is a cron expression for periodic full runs; empty disables it.
	Schedule string `yaml:"schedule"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration for the status API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
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
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Notion: NotionConfig{
			MaxRetries: 5,
			Timeout:    30 * time.Second,
		},
		Markdown: MarkdownConfig{
			Root: ".",
		},
		Ledger: LedgerConfig{
			Path: "./mdnotion.db",
		},
		Watch: WatchConfig{
			Debounce: watch.DefaultDebounce,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
