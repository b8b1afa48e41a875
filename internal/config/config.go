// Package config provides configuration management for knygynas using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the KNYGYNAS_ prefix and validation. It manages server binding, the
// storage backend and data file locations, the HTML fragment directory, the
// session cookie and development options like fragment hot reload.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/validation"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultSessionMaxAge is one year in seconds.
const DefaultSessionMaxAge = 60 * 60 * 24 * 365

type Config struct {
	Server      ServerConfig      `yaml:"server" json:"server" mapstructure:"server"`
	Storage     StorageConfig     `yaml:"storage" json:"storage" mapstructure:"storage"`
	Templates   TemplatesConfig   `yaml:"templates" json:"templates" mapstructure:"templates"`
	Session     SessionConfig     `yaml:"session" json:"session" mapstructure:"session"`
	Development DevelopmentConfig `yaml:"development" json:"development" mapstructure:"development"`
	Log         LogConfig         `yaml:"log" json:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port" json:"port" mapstructure:"port"`
	Host string `yaml:"host" json:"host" mapstructure:"host"`
	// Domain prefixes redirect targets and is exposed to templates. Empty
	// means redirects stay relative to the current host.
	Domain         string   `yaml:"domain" json:"domain" mapstructure:"domain"`
	Environment    string   `yaml:"environment" json:"environment" mapstructure:"environment"`
	StaticDir      string   `yaml:"static_dir" json:"static_dir" mapstructure:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Backend      string `yaml:"backend" json:"backend" mapstructure:"backend"`
	BooksPath    string `yaml:"books_path" json:"books_path" mapstructure:"books_path"`
	SessionsPath string `yaml:"sessions_path" json:"sessions_path" mapstructure:"sessions_path"`
	SQLitePath   string `yaml:"sqlite_path" json:"sqlite_path" mapstructure:"sqlite_path"`
}

type TemplatesConfig struct {
	Dir    string `yaml:"dir" json:"dir" mapstructure:"dir"`
	Header string `yaml:"header" json:"header" mapstructure:"header"`
	Footer string `yaml:"footer" json:"footer" mapstructure:"footer"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name" json:"cookie_name" mapstructure:"cookie_name"`
	MaxAge     int    `yaml:"max_age" json:"max_age" mapstructure:"max_age"`
}

type DevelopmentConfig struct {
	HotReload bool `yaml:"hot_reload" json:"hot_reload" mapstructure:"hot_reload"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle development settings set via viper (workaround for viper bool handling)
	if viper.IsSet("development.hot_reload") {
		config.Development.HotReload = viper.GetBool("development.hot_reload")
	}

	// Handle allowed origins set via viper (workaround for viper slice handling)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}

	// The root --log-level flag is bound as a top-level key
	if viper.IsSet("log-level") && !viper.IsSet("log.level") {
		config.Log.Level = viper.GetString("log-level")
	}

	// A data directory flag relocates both data files at once
	if dataDir := viper.GetString("storage.data_dir"); dataDir != "" {
		if !viper.IsSet("storage.books_path") {
			config.Storage.BooksPath = filepath.Join(dataDir, "books.json")
		}
		if !viper.IsSet("storage.sessions_path") {
			config.Storage.SessionsPath = filepath.Join(dataDir, "session.json")
		}
		if !viper.IsSet("storage.sqlite_path") {
			config.Storage.SQLitePath = filepath.Join(dataDir, "knygynas.db")
		}
	}

	applyDefaults(&config)

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid, "invalid configuration", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = "public"
	}

	if config.Storage.Backend == "" {
		config.Storage.Backend = BackendFile
	}
	if config.Storage.BooksPath == "" {
		config.Storage.BooksPath = "data/books.json"
	}
	if config.Storage.SessionsPath == "" {
		config.Storage.SessionsPath = "data/session.json"
	}
	if config.Storage.SQLitePath == "" {
		config.Storage.SQLitePath = "data/knygynas.db"
	}

	if config.Templates.Dir == "" {
		config.Templates.Dir = "web/html"
	}
	if config.Templates.Header == "" {
		config.Templates.Header = "top.html"
	}
	if config.Templates.Footer == "" {
		config.Templates.Footer = "bottom.html"
	}

	if config.Session.CookieName == "" {
		config.Session.CookieName = "session"
	}
	if config.Session.MaxAge == 0 {
		config.Session.MaxAge = DefaultSessionMaxAge
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateStorageConfig(&config.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return fmt.Errorf("templates config: %w", err)
	}

	if config.Session.MaxAge < 0 {
		return fmt.Errorf("session config: max_age %d must not be negative", config.Session.MaxAge)
	}
	if strings.ContainsAny(config.Session.CookieName, " ;=,\t\r\n") {
		return fmt.Errorf("session config: invalid cookie name %q", config.Session.CookieName)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unsupported format %q (supported: text, json)", config.Log.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if err := validation.ValidateHost(config.Host); err != nil {
		return err
	}

	if config.Domain != "" {
		if err := validation.ValidateURL(config.Domain); err != nil {
			return fmt.Errorf("domain %q: %w", config.Domain, err)
		}
	}

	return nil
}

func validateStorageConfig(config *StorageConfig) error {
	switch config.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (supported: file, memory, sqlite)", config.Backend)
	}

	for name, path := range map[string]string{
		"books_path":    config.BooksPath,
		"sessions_path": config.SessionsPath,
		"sqlite_path":   config.SQLitePath,
	} {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	if filepath.Clean(config.BooksPath) == filepath.Clean(config.SessionsPath) {
		return fmt.Errorf("books_path and sessions_path must differ")
	}

	return nil
}

func validateTemplatesConfig(config *TemplatesConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
	}

	for _, name := range []string{config.Header, config.Footer} {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("fragment name %q must be a plain file name", name)
		}
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
