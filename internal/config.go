package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/onepage/internal/analyzer"
	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/history"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Library  LibraryConfig     `yaml:"library"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Canvas   CanvasConfig      `yaml:"canvas"`
	Export   ExportConfig      `yaml:"export"`
	Upload   UploadConfig      `yaml:"upload"`
	Analyzer AnalyzerConfig    `yaml:"analyzer"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Library, &c.SQLite, &c.Auth, &c.Canvas, &c.Export, &c.Upload, &c.Analyzer,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
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

// LibraryConfig holds the analysis library directory and where MCP exports
// are written.
type LibraryConfig struct {
	Path      string `yaml:"path"`
	ExportDir string `yaml:"export_dir"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ExportDir, validation.Required),
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

// CanvasConfig tunes editing sessions.
type CanvasConfig struct {
	SnapThreshold float64       `yaml:"snap_threshold"`
	MinWidth      float64       `yaml:"min_width"`
	MinHeight     float64       `yaml:"min_height"`
	HistoryLimit  int           `yaml:"history_limit"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	ReapInterval  time.Duration `yaml:"reap_interval"`
	FrameThrottle time.Duration `yaml:"frame_throttle"`
}

// Validate validates the canvas configuration.
func (c *CanvasConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SnapThreshold, validation.Min(0.0), validation.Max(10.0)),
		validation.Field(&c.MinWidth, validation.Required, validation.Min(1.0), validation.Max(100.0)),
		validation.Field(&c.MinHeight, validation.Required, validation.Min(1.0), validation.Max(100.0)),
		validation.Field(&c.HistoryLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.SettleDelay, validation.Required),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.ReapInterval, validation.Required),
		validation.Field(&c.FrameThrottle, validation.Min(time.Duration(0))),
	)
}

// Board returns the session settings for the board service.
func (c *CanvasConfig) Board() board.Config {
	return board.Config{
		Limits: canvas.Limits{
			SnapThreshold: c.SnapThreshold,
			MinWidth:      c.MinWidth,
			MinHeight:     c.MinHeight,
		},
		HistoryLimit: c.HistoryLimit,
		SettleDelay:  c.SettleDelay,
		SessionTTL:   c.SessionTTL,
	}
}

// ExportConfig tunes the PDF and image renderer.
type ExportConfig struct {
	ReferenceWidth   float64 `yaml:"reference_width"`
	PixelScale       float64 `yaml:"pixel_scale"`
	MobileBreakpoint int     `yaml:"mobile_breakpoint"`
	JPEGQuality      int     `yaml:"jpeg_quality"`
	PageSize         string  `yaml:"page_size"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ReferenceWidth, validation.Required, validation.Min(100.0)),
		validation.Field(&c.PixelScale, validation.Required, validation.Min(0.5), validation.Max(8.0)),
		validation.Field(&c.MobileBreakpoint, validation.Required, validation.Min(1)),
		validation.Field(&c.JPEGQuality, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.PageSize, validation.Required, validation.In("A3", "A4", "A5", "Letter", "Legal", "Tabloid")),
	)
}

// Options returns the renderer options.
func (c *ExportConfig) Options() export.Options {
	return export.Options{
		ReferenceWidth:   c.ReferenceWidth,
		PixelScale:       c.PixelScale,
		MobileBreakpoint: c.MobileBreakpoint,
		JPEGQuality:      c.JPEGQuality,
		PageSize:         c.PageSize,
	}
}

// UploadConfig limits documents sent for analysis.
type UploadConfig struct {
	MaxBytes   int64    `yaml:"max_bytes"`
	Extensions []string `yaml:"extensions"`
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.Required, validation.By(noDot))),
	)
}

func noDot(value interface{}) error {
	if s, _ := value.(string); strings.HasPrefix(s, ".") {
		return fmt.Errorf("extension %q must not start with a dot", s)
	}
	return nil
}

// AnalyzerConfig points at the external document analyzer. An empty URL
// disables uploads.
type AnalyzerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the analyzer configuration.
func (c *AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, is.URL),
		validation.Field(&c.Timeout, validation.Required),
	)
}

// AnalyzerClientConfig combines the analyzer and upload sections.
func (c *Config) AnalyzerClientConfig() analyzer.Config {
	return analyzer.Config{
		URL:        c.Analyzer.URL,
		Timeout:    c.Analyzer.Timeout,
		MaxBytes:   c.Upload.MaxBytes,
		Extensions: c.Upload.Extensions,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	limits := canvas.DefaultLimits()
	opts := export.DefaultOptions()
	an := analyzer.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			Path:      "./library",
			ExportDir: "./exports",
		},
		SQLite: SQLiteConfig{
			Path: "./onepage.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Canvas: CanvasConfig{
			SnapThreshold: limits.SnapThreshold,
			MinWidth:      limits.MinWidth,
			MinHeight:     limits.MinHeight,
			HistoryLimit:  history.DefaultLimit,
			SettleDelay:   history.DefaultSettleDelay,
			SessionTTL:    2 * time.Hour,
			ReapInterval:  5 * time.Minute,
			FrameThrottle: 50 * time.Millisecond,
		},
		Export: ExportConfig{
			ReferenceWidth:   opts.ReferenceWidth,
			PixelScale:       opts.PixelScale,
			MobileBreakpoint: opts.MobileBreakpoint,
			JPEGQuality:      opts.JPEGQuality,
			PageSize:         opts.PageSize,
		},
		Upload: UploadConfig{
			MaxBytes:   an.MaxBytes,
			Extensions: an.Extensions,
		},
		Analyzer: AnalyzerConfig{
			Timeout: an.Timeout,
		},
	}
}
