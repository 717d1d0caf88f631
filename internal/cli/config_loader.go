// filepath: internal/cli/config_loader.go
package cli

import (
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"gallerybase/internal/config"
	"gallerybase/internal/logging"
	"gallerybase/internal/repository"
)

var (
	// Global config object populated by flags/env/file
	cfg *config.Config

	// Flags variables
	cfgFile  string
	logLevel string
	dbPath   string
)

func registerFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config_path", "config.toml", "Path to the base configuration file. (Env: GLB_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (debug, info, warn, error). (Env: GLB_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to the library database file. (Env: GLB_DATABASE_PATH)")
}

// initializeConfig loads and overrides configuration values.
func initializeConfig(cmd *cobra.Command) error {
	// 1. Check environment variable for config path first
	if envPath := os.Getenv("GLB_CONFIG_PATH"); envPath != "" && cfgFile == "config.toml" {
		cfgFile = envPath
	}

	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = &config.Config{}
		} else {
			return fmt.Errorf("failed to load configuration from %s: %w", cfgFile, err)
		}
	}

	// 2. Apply Overrides (Env Vars and CLI Flags)
	applyOverrides(cfg)

	// 3. Validate
	if err := cfg.ParseAndValidate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// 4. Initialize Logging
	logging.Init(cfg.Logging.Level)
	goose.SetLogger(logging.Log)

	return nil
}

// openRepository connects to the library database, auto-migrating a
// fresh file and refusing to run against an outdated one.
func openRepository() (*repository.Repository, error) {
	repo, err := repository.NewRepository(cfg, logging.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repo.EnsureSchemaBootstrapped(); err != nil {
		repo.Close()
		return nil, err
	}
	if err := repo.ValidateSchema(); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func applyOverrides(c *config.Config) {
	// --- Environment Variables ---
	if v := os.Getenv("GLB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GLB_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("GLB_THUMBNAIL_DIR"); v != "" {
		c.Library.ThumbnailDir = v
	}
	if v := os.Getenv("GLB_TEMP_DIR"); v != "" {
		c.Library.TempDir = v
	}

	// --- CLI Flags (highest priority) ---
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if dbPath != "" {
		c.Database.Path = dbPath
	}
}
