// Package config manages dirkit configuration from ~/.dirkit/config.yaml and
// DIRKIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/dirkit/internal/categories"
)

// Config holds the application configuration.
type Config struct {
	CategoriesFile string `mapstructure:"categories_file"`
	Organize       struct {
		SkipHidden bool `mapstructure:"skip_hidden"`
	} `mapstructure:"organize"`
	Output struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
	Progress bool `mapstructure:"progress"`
	Watch    struct {
		DebounceMs int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
	Audit struct {
		Enabled  bool   `mapstructure:"enabled"`
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"audit"`
}

// Load reads the configuration file and environment overrides.
// A missing config file is not an error.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	setDefaults()

	// DIRKIT_WATCH_DEBOUNCE_MS overrides watch.debounce_ms
	viper.SetEnvPrefix("DIRKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("categories_file", "")
	viper.SetDefault("organize.skip_hidden", false)
	viper.SetDefault("output.color", true)
	viper.SetDefault("progress", true)
	viper.SetDefault("watch.debounce_ms", 1000)
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.file_path", filepath.Join(configDir(), "audit.log"))
}

// CategoryTable loads the category table. override, when non-empty, wins over
// the categories_file setting; with neither set the built-in table is used.
func (c *Config) CategoryTable(override string) (*categories.Table, error) {
	path := override
	if path == "" && c != nil {
		path = c.CategoriesFile
	}
	if path == "" {
		return categories.Default(), nil
	}
	return categories.LoadFile(expandHome(path))
}

// Dir returns the directory holding config.yaml, the audit log and the watcher PID file.
func Dir() string {
	return configDir()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dirkit"
	}
	return filepath.Join(home, ".dirkit")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
