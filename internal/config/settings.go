package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/dirkit/internal/categories"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Keys lists the settings `dirkit config set` accepts.
var Keys = []string{
	"categories_file",
	"organize.skip_hidden",
	"output.color",
	"progress",
	"watch.debounce_ms",
	"audit.enabled",
	"audit.file_path",
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks the loaded settings and returns findings.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if path := viper.GetString("categories_file"); path != "" {
		t, err := categories.LoadFile(expandHome(path))
		if err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "categories_file",
				Severity: "error",
				Message:  err.Error(),
				Fix:      "dirkit categories init --output " + path,
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      "categories_file",
				Severity: "info",
				Message:  fmt.Sprintf("Category table loaded from %s (%d categories)", path, len(t.Names())),
			})
		}
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "categories_file",
			Severity: "info",
			Message:  "Using the built-in category table",
		})
	}

	if ms := viper.GetInt("watch.debounce_ms"); ms <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "watch.debounce_ms",
			Severity: "error",
			Message:  fmt.Sprintf("watch.debounce_ms must be positive, got %d", ms),
			Fix:      "dirkit config set watch.debounce_ms 1000",
		})
	} else if ms < 100 {
		issues = append(issues, ConfigIssue{
			Key:      "watch.debounce_ms",
			Severity: "warning",
			Message:  fmt.Sprintf("watch.debounce_ms of %d may organize files before downloads finish", ms),
			Fix:      "dirkit config set watch.debounce_ms 1000",
		})
	}

	if viper.GetBool("audit.enabled") && viper.GetString("audit.file_path") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "audit.file_path",
			Severity: "warning",
			Message:  "Audit logging is enabled but audit.file_path is empty",
			Fix:      "dirkit config set audit.file_path ~/.dirkit/audit.log",
		})
	}

	return issues
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores the defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for _, key := range Keys {
		viper.Set(key, nil)
	}
	setDefaults()
	return nil
}

// SaveConfig writes the current settings to ~/.dirkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// Settings returns the current value of every known key.
func Settings() map[string]interface{} {
	out := make(map[string]interface{}, len(Keys))
	for _, key := range Keys {
		out[key] = viper.Get(key)
	}
	return out
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	for _, key := range keys {
		value := viper.GetString(key)
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("  %-22s %s\n", key, value))
	}
	return sb.String()
}
