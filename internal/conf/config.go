// config.go: This file contains the configuration for the ecosante service.
// It defines the settings struct and functions to load and access the settings.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool   // true to enable this log
	Path        string // path to log file
	Rotation    string // rotation type: daily, weekly or size
	MaxSize     int64  // max size in bytes for size rotation
	RotationDay string // day of the week for weekly rotation
}

// MainSettings contains general application settings
type MainSettings struct {
	Name string    // name of the node, used as identifier in logs
	Log  LogConfig // main log file configuration
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to the database file
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// DatabaseSettings contains database backend settings, exactly one
// backend is expected to be enabled.
type DatabaseSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// AirQualitySettings contains settings for the air quality data provider.
type AirQualitySettings struct {
	Provider string        // provider to use, only "atmo" is implemented
	BaseURL  string        // base URL of the forecast API
	APIKey   string        // API key, if the endpoint requires one
	Timeout  time.Duration // per request timeout
	CacheTTL time.Duration // how long fetched snapshots are cached
	Debug    bool          // true to enable debug logging of fetches
}

// NewsletterSettings controls the daily selection and send batch.
type NewsletterSettings struct {
	WindowDays int    // anti-repetition lookback window in days
	Workers    int    // concurrent profile evaluations
	Seed       string // optional seed token for the candidate pool shuffle
}

// DeliverySettings configures outbound message dispatch.
type DeliverySettings struct {
	Enabled  bool          // false disables all outbound sends
	DryRun   bool          // log instead of sending
	MailURLs []string      // shoutrrr service URLs for the mail channel
	SMSURLs  []string      // shoutrrr service URLs for the sms channel
	Timeout  time.Duration // per dispatch timeout
}

// WebSettings configures the HTTP API server.
type WebSettings struct {
	Enabled bool   // true to enable the HTTP API
	Address string // listen address, e.g. ":8080"
	Debug   bool   // true to enable request debug logging
}

// Settings is the root configuration type.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main       MainSettings
	Database   DatabaseSettings
	AirQuality AirQualitySettings
	Newsletter NewsletterSettings
	Delivery   DeliverySettings
	Web        WebSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Setting returns the global settings instance, initializing it on first use.
func Setting() *Settings {
	once.Do(func() {
		settingsMutex.Lock()
		defer settingsMutex.Unlock()
		settingsInstance = initSettings()
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Load reads the configuration from disk (or the embedded default) and
// returns a validated Settings instance.
func Load() (*Settings, error) {
	settings := initSettings()
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return settings, nil
}

func initSettings() *Settings {
	initViper()

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		log.Printf("error unmarshaling config into struct: %v", err)
		return nil
	}
	return settings
}

func initViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths := configPaths()
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("ECOSANTE")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &configFileNotFoundError) {
			log.Printf("error reading config file: %v", err)
			return
		}
		// No config on disk, write the embedded default for the user to edit.
		if err := createDefaultConfig(configPaths[0]); err != nil {
			log.Printf("error creating default config file: %v", err)
		}
	}
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

// configPaths returns the list of directories searched for config.yaml,
// most specific first.
func configPaths() []string {
	paths := []string{}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "ecosante"))
	}
	paths = append(paths, ".")
	return paths
}

// createDefaultConfig writes the embedded default configuration file to
// the given directory.
func createDefaultConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("reading embedded config: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("writing default config to %s: %w", configPath, err)
	}

	log.Printf("created default config file at %s", configPath)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading newly created config: %w", err)
	}
	return nil
}

// SaveAs writes the current settings to the given path as YAML.
func (s *Settings) SaveAs(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	return nil
}
