// Package config loads reconciler settings from an optional YAML file overlaid
// by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the reconciler reads at startup.
type Config struct {
	// DatabaseURL is required unless the run reads an offline snapshot file.
	DatabaseURL   string `yaml:"database_url" validate:"required_without=SnapshotPath"`
	SnapshotPath  string `yaml:"snapshot"`
	VariantsTable string `yaml:"variants_table" validate:"required"`
	DefaultStatus string `yaml:"default_status" validate:"required"`
	PreviewLimit  int    `yaml:"preview_limit" validate:"min=1,max=1000"`
	LogLevel      string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string `yaml:"log_format" validate:"oneof=console json"`
}

// Default returns the built-in settings for the POS schema.
func Default() *Config {
	return &Config{
		VariantsTable: "lats_product_variants",
		DefaultStatus: "available",
		PreviewLimit:  10,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then environment variables, then overrides (command-line flags). The result
// is validated before it is returned.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.VariantsTable, "RECONCILE_VARIANTS_TABLE")
	setString(&c.DefaultStatus, "RECONCILE_DEFAULT_STATUS")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := strings.TrimSpace(os.Getenv("RECONCILE_PREVIEW_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RECONCILE_PREVIEW_LIMIT %q: %w", v, err)
		}
		c.PreviewLimit = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every failing field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}
