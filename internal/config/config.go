// filepath: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the application's configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Library  LibraryConfig  `toml:"library"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LibraryConfig holds thumbnail and extraction settings.
type LibraryConfig struct {
	ThumbnailDir   string `toml:"thumbnail_dir"`
	TempDir        string `toml:"temp_dir"`
	NoImagePath    string `toml:"no_image_path"` // shared placeholder thumbnail
	ThumbWidth     int    `toml:"thumb_width"`
	ThumbHeight    int    `toml:"thumb_height"`
	ThumbTimeoutMS int    `toml:"thumb_timeout_ms"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig loads the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the current configuration back to a TOML file.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file for saving: %w", err)
	}
	defer f.Close()
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config to file: %w", err)
	}
	return nil
}

// ParseAndValidate fills in defaults for missing values and rejects
// settings the stores cannot work with.
func (c *Config) ParseAndValidate() error {
	if c.Database.Path == "" {
		c.Database.Path = "gallerybase.db"
	}
	if c.Library.ThumbnailDir == "" {
		c.Library.ThumbnailDir = filepath.Join(filepath.Dir(c.Database.Path), "thumbnails")
	}
	if c.Library.TempDir == "" {
		c.Library.TempDir = os.TempDir()
	}
	if c.Library.NoImagePath == "" {
		c.Library.NoImagePath = filepath.Join(c.Library.ThumbnailDir, "no_image.png")
	}
	if c.Library.ThumbWidth <= 0 {
		c.Library.ThumbWidth = 200
	}
	if c.Library.ThumbHeight <= 0 {
		c.Library.ThumbHeight = 280
	}
	if c.Library.ThumbTimeoutMS <= 0 {
		c.Library.ThumbTimeoutMS = 10000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}
