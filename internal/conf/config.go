// config.go: settings for the classmark attendance engine. It defines the
// settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/classmark/classmark-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// CameraSettings contains settings for the capture device and the preview
// surface it renders to.
type CameraSettings struct {
	DeviceIndex int    // capture device index, 0 is the platform default
	Display     bool   // true to show the live preview window
	StopKey     string // key that ends a detection session, single character
	TickDelayMs int    // per-tick key poll delay for the preview window
}

// DetectionSettings contains settings for the face-region classifier.
type DetectionSettings struct {
	CascadePath  string  // primary path to the Haar cascade asset
	FallbackPath string  // well-known path tried when the primary is absent
	ScaleFactor  float64 // detectMultiScale pyramid scale factor
	MinNeighbors int     // detectMultiScale neighbor threshold
}

// RegistrationSettings contains settings for registration capture.
type RegistrationSettings struct {
	CaptureDelay int    // seconds of countdown before the still frame is kept
	ImageDir     string // directory where captured reference images are saved
}

// SQLiteSettings contains settings for the SQLite ledger output.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// MySQLSettings contains settings for the MySQL ledger output.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
	Database string
}

// OutputSettings selects and configures the ledger storage backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// TelemetrySettings configures the Prometheus metrics endpoint served
// during capture sessions.
type TelemetrySettings struct {
	Enabled bool
	Listen  string // host:port to listen on
}

// LogConfig defines the configuration for the main log file.
type LogConfig struct {
	Enabled bool
	Path    string
}

// MainSettings carries node identity and log output settings.
type MainSettings struct {
	Name string // name of this node, used in logs
	Log  LogConfig
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug bool

	Main         MainSettings
	Camera       CameraSettings
	Detection    DetectionSettings
	Registration RegistrationSettings
	Output       OutputSettings
	Telemetry    TelemetrySettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings struct and stores it as
// the process-wide instance. Asset paths are resolved here, once, and are
// never mutated mid-session.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with the config file search paths, defaults
// and environment bindings.
func initViper() error {
	// A .env file in the working directory is honored before env binding,
	// the reference deployment drives database credentials through it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("error loading .env file: %v", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	bindDatabaseEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// bindDatabaseEnv maps the reference system's DB_* environment variables
// onto the MySQL output settings.
func bindDatabaseEnv() {
	_ = viper.BindEnv("output.mysql.host", "DB_HOST")
	_ = viper.BindEnv("output.mysql.username", "DB_USER")
	_ = viper.BindEnv("output.mysql.password", "DB_PASSWORD")
	_ = viper.BindEnv("output.mysql.database", "DB_NAME")
}

// createDefaultConfig creates a default config file and writes it to the
// first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded
// config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
