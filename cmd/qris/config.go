// Settings loading for the qris CLI. Settings live in a per-user config
// directory under Riverscapes/QRiS, overridable with --config-dir.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	settingsFileName = "settings"
	settingsFileType = "yaml"
)

// defaultSettingsYAML is written on first run so users have a template to
// fill in.
const defaultSettingsYAML = `# QRiS settings.

# Climate Engine API key (https://www.climateengine.org/).
# Also settable with the QRIS_CLIMATE_ENGINE_API_KEY environment variable.
# climate_engine_api_key:
`

// resolveConfigDir returns the settings directory, preferring the
// --config-dir flag.
func resolveConfigDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "Riverscapes", "QRiS"), nil
}

// loadSettings reads settings.yaml from the config directory, creating
// the directory and a commented template on first run. A missing file is
// not an error.
func loadSettings() (*viper.Viper, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	settingsFile := filepath.Join(configDir, settingsFileName+"."+settingsFileType)
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettingsYAML), 0o600); err != nil {
			return nil, fmt.Errorf("writing default settings: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName(settingsFileName)
	v.SetConfigType(settingsFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}
	return v, nil
}
