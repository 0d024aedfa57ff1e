package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Default backend locations.
const (
	DefaultBackendOrigin = "http://localhost:8000"
	NotesPath            = "/api/notes"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Client ClientConfig      `yaml:"client"`
	Server ServerConfig      `yaml:"server"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile receives the terminal client's logs. Empty discards them.
	LogFile string `yaml:"log_file"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// ClientConfig configures how the client reaches the notes backend.
type ClientConfig struct {
	APIBase       string        `yaml:"api_base"`
	BackendOrigin string        `yaml:"backend_origin"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIBase, is.URL),
		validation.Field(&c.BackendOrigin, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// BaseURL resolves the notes collection URL: an explicit api base wins, then
// the backend origin plus NotesPath, then the default origin.
func (c *ClientConfig) BaseURL() string {
	if base := strings.TrimSpace(c.APIBase); base != "" {
		return strings.TrimRight(base, "/")
	}
	origin := strings.TrimSpace(c.BackendOrigin)
	if origin == "" {
		origin = DefaultBackendOrigin
	}
	return strings.TrimRight(origin, "/") + NotesPath
}

// ServerConfig holds the reference backend configuration.
type ServerConfig struct {
	HTTP   HTTPConfig   `yaml:"http"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.SQLite.Validate()
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Port: 8000,
			},
			SQLite: SQLiteConfig{
				Path: "./jotter.db",
			},
		},
	}
}
