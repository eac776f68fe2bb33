// config.go: loading, saving and accessing application settings
package conf

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/audiomirror/audiomirror-go/internal/errors"
)

// RotationType denotes the log rotation policy.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// LogConfig defines the configuration for a rotating log file.
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // Path to the log file
	Rotation RotationType // Rotation type: daily, weekly or size
	MaxSize  int64        // Max size in bytes for RotationSize
}

// MainSettings contains main application settings.
type MainSettings struct {
	Name string    // Node name, used to identify the mirror instance
	Log  LogConfig // Main application log configuration
}

// MetricsSettings contains Prometheus metrics endpoint settings.
type MetricsSettings struct {
	Enabled bool   // true to expose metrics over HTTP
	Listen  string // host:port to listen on
}

// CaptureSettings contains settings for the audio mirror pipeline.
type CaptureSettings struct {
	Source         string // Audio source device name or ID, e.g. "sysdefault"
	BufferSeconds  int    // Length of the stream ring buffer in seconds
	ExportPath     string // Directory to write exported WAV segments to
	SegmentSeconds int    // Length of one exported WAV segment in seconds
	Metrics        MetricsSettings
}

// Settings contains all application settings.
type Settings struct {
	Debug   bool // true to enable debug logging
	Main    MainSettings
	Capture CaptureSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings struct and stores it as
// the package singleton.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create it from the defaults
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the default configuration to the first config path.
func createDefaultConfig(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	if err := viper.SafeWriteConfigAs(configFile); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "write-default-config").
			Build()
	}

	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
func SaveSettings() error {
	settingsMutex.RLock()
	settingsCopy := *settingsInstance
	settingsMutex.RUnlock()

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file first to get an atomic replace
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// Rename is atomic on most filesystems; fall back to copy on failure
	// (e.g. cross-device link when the temp directory is elsewhere)
	if err := os.Rename(tempFileName, configPath); err != nil {
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}

// moveFile copies src to dst and removes src, for when rename is not possible.
func moveFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
