package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/classmark/classmark-go/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns a list of directories where the config file
// is searched for, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "classmark"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "classmark"),
			".",
			"/etc/classmark",
		}
	}

	return configPaths, nil
}

// GetBasePath expands and normalizes path, creating the directory when it
// does not exist yet.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
