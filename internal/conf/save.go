package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveSettings writes the settings back to the given config file path. It
// writes to a temporary file in the same directory and renames it over the
// original so a crash mid-write never leaves a truncated config.
func SaveSettings(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}

	dir := filepath.Dir(configPath)
	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
