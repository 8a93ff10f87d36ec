package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
)

// ToMap returns the settings as a flat key/value map for display.
func (c *Config) ToMap() map[string]string {
	return map[string]string{
		"canvas.base_url":             c.Canvas.BaseURL,
		"canvas.course_id":            c.Canvas.CourseID,
		"settings.output_dir":         c.Settings.OutputDir,
		"settings.allowed_extensions": strings.Join(c.Settings.AllowedExtensions, ","),
		"settings.http_timeout":       c.Settings.HTTPTimeout.String(),
		"settings.per_page":           strconv.Itoa(c.Settings.PerPage),
		"settings.extract":            strconv.FormatBool(c.Settings.Extract),
		"settings.log_level":          c.Settings.LogLevel,
		"hooks.pre_download":          c.Hooks.PreDownload,
		"hooks.post_download":         c.Hooks.PostDownload,
	}
}

// GetValue returns the value for a configuration key.
func (c *Config) GetValue(key string) (string, error) {
	value, ok := c.ToMap()[key]
	if !ok {
		return "", errors.Wrapf(errors.ErrConfigKeyUnknown, "%s", key)
	}
	return value, nil
}

// SetValue sets the value for a configuration key.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "canvas.base_url":
		c.Canvas.BaseURL = value
	case "canvas.access_token":
		c.Canvas.AccessToken = value
	case "canvas.course_id":
		c.Canvas.CourseID = value
	case "settings.output_dir":
		c.Settings.OutputDir = value
	case "settings.allowed_extensions":
		c.Settings.AllowedExtensions = strings.Split(value, ",")
	case "settings.http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		c.Settings.HTTPTimeout = d
	case "settings.per_page":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid per_page %q: %w", value, err)
		}
		c.Settings.PerPage = n
	case "settings.extract":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q: %w", value, err)
		}
		c.Settings.Extract = b
	case "settings.log_level":
		c.Settings.LogLevel = value
	case "hooks.pre_download":
		c.Hooks.PreDownload = value
	case "hooks.post_download":
		c.Hooks.PostDownload = value
	default:
		return errors.Wrapf(errors.ErrConfigKeyUnknown, "%s", key)
	}
	return c.Validate()
}
