// Package config provides configuration management for canvasgrab. It handles
// loading, validating, and managing application settings from a YAML file and
// the environment. The entry point builds a single Config object and passes it
// into collaborators; core packages never read ambient configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/canvasgrab/canvasgrab/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Canvas API connection settings
	Canvas CanvasConfig `yaml:"canvas"`

	// General settings
	Settings Settings `yaml:"settings"`

	// Optional download lifecycle hook scripts
	Hooks HooksConfig `yaml:"hooks,omitempty"`
}

// CanvasConfig describes the Canvas instance and course to fetch from.
type CanvasConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token,omitempty"`
	CourseID    string `yaml:"course_id,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Output settings
	OutputDir string `yaml:"output_dir,omitempty"` // defaults to canvas_course_<id>_files

	// Extension allow-list; entries are matched case-insensitively with a leading dot
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	PerPage     int           `yaml:"per_page"`

	// Archive extraction after download
	Extract bool `yaml:"extract"`

	// Output settings
	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// HooksConfig points at optional Tengo scripts run around each download.
type HooksConfig struct {
	PreDownload  string `yaml:"pre_download,omitempty"`
	PostDownload string `yaml:"post_download,omitempty"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultPerPage is the default page size requested from collection endpoints.
	DefaultPerPage = 100

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultExtensions mirrors the file types worth pulling out of a course.
var DefaultExtensions = []string{
	".pptx", ".pdf", ".zip", ".docx", ".py", ".ipynb", ".java", ".txt", ".csv",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{},
		Settings: Settings{
			AllowedExtensions: append([]string(nil), DefaultExtensions...),
			HTTPTimeout:       DefaultHTTPTimeout,
			PerPage:           DefaultPerPage,
			LogLevel:          "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyEnv overlays environment variables onto the configuration. The variable
// names match the original deployment surface of the tool.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CANVAS_BASE_URL"); v != "" {
		c.Canvas.BaseURL = v
	}
	if v := os.Getenv("ACCESS_TOKEN"); v != "" {
		c.Canvas.AccessToken = v
	}
	if v := os.Getenv("COURSE_ID"); v != "" {
		c.Canvas.CourseID = v
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		parts := strings.Split(v, ",")
		exts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				exts = append(exts, p)
			}
		}
		if len(exts) > 0 {
			c.Settings.AllowedExtensions = exts
		}
	}
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Settings.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	if c.Settings.PerPage < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "per_page must be at least 1")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", c.Settings.LogLevel)
	}
	if c.Canvas.BaseURL != "" && !strings.Contains(c.Canvas.BaseURL, "://") {
		return errors.Wrapf(errors.ErrConfigValidation, "base_url %q must include a scheme", c.Canvas.BaseURL)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "canvasgrab", "config.yaml"), nil
}

// OutputDir returns the configured output directory, falling back to the
// per-course default when unset.
func (c *Config) OutputDir() string {
	if c.Settings.OutputDir != "" {
		return c.Settings.OutputDir
	}
	return fmt.Sprintf("canvas_course_%s_files", c.Canvas.CourseID)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.PerPage == 0 {
		c.Settings.PerPage = defaults.Settings.PerPage
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if len(c.Settings.AllowedExtensions) == 0 {
		c.Settings.AllowedExtensions = defaults.Settings.AllowedExtensions
	}
}
