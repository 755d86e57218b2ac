package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OutputConfig controls where and how screenshots are written.
type OutputConfig struct {
	Dir               string `json:"dir" yaml:"dir" mapstructure:"dir"`
	BaseName          string `json:"base_name" yaml:"base_name" mapstructure:"base_name"`
	Format            string `json:"format" yaml:"format" mapstructure:"format"`
	JPEGQuality       int    `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	ResampleToLogical bool   `json:"resample_to_logical" yaml:"resample_to_logical" mapstructure:"resample_to_logical"`
}

// Config represents the application configuration
type Config struct {
	LogLevel   string       `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	PrettyLog  bool         `json:"pretty_log" yaml:"pretty_log" mapstructure:"pretty_log"`
	Backend    string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DPIScale   float64      `json:"dpi_scale" yaml:"dpi_scale" mapstructure:"dpi_scale"` // 0 probes the OS
	ServerPort int          `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	Output     OutputConfig `json:"output" yaml:"output" mapstructure:"output"`
}

// Keys lists every settable configuration key.
var Keys = []string{
	"log_level",
	"pretty_log",
	"backend",
	"dpi_scale",
	"server_port",
	"output.dir",
	"output.base_name",
	"output.format",
	"output.jpeg_quality",
	"output.resample_to_logical",
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

var validBackends = map[string]bool{"auto": true, "x11": true, "screenshot": true}

var validFormats = map[string]bool{"png": true, "jpeg": true, "jpg": true, "bmp": true}

// validLevels matches the names logger.ParseLevel understands.
var validLevels = map[string]bool{
	"trace":    true,
	"debug":    true,
	"info":     true,
	"warn":     true,
	"warning":  true,
	"error":    true,
	"disabled": true,
	"off":      true,
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if !validLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (use: trace, debug, info, warn, error, disabled)", c.LogLevel))
	}
	if !validBackends[strings.ToLower(c.Backend)] {
		errs = append(errs, fmt.Errorf("invalid backend: %s (use: auto, x11, screenshot)", c.Backend))
	}
	if c.DPIScale < 0 {
		errs = append(errs, fmt.Errorf("invalid dpi_scale: %v (must be >= 0, 0 probes the OS)", c.DPIScale))
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid server_port: %d", c.ServerPort))
	}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("invalid output.format: %s (use: png, jpeg, bmp)", c.Output.Format))
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("invalid output.jpeg_quality: %d (1-100)", c.Output.JPEGQuality))
	}
	return errors.Join(errs...)
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/scaleshot/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scaleshot", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults. SCALESHOT_* environment variables override
// file values.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SCALESHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{
		configPath: path,
		v:          v,
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", path).
			Msg("Config file not found, creating new config")
		if err := m.reload(); err != nil {
			return nil, err
		}
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err := m.reload(); err != nil {
		return nil, err
	}

	logger.WithComponent("config").Debug().
		Str("path", path).
		Str("backend", m.config.Backend).
		Msg("Config loaded")

	return m, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("pretty_log", true)
	v.SetDefault("backend", "auto")
	v.SetDefault("dpi_scale", 0.0)
	v.SetDefault("server_port", 8080)
	v.SetDefault("output.dir", "screenshots")
	v.SetDefault("output.base_name", "display")
	v.SetDefault("output.format", "png")
	v.SetDefault("output.jpeg_quality", 90)
	v.SetDefault("output.resample_to_logical", false)
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// reload decodes viper state into a Config and validates it.
func (m *Manager) reload() error {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	return &cfg
}

// GetViper exposes the underlying viper instance for key-level access.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Override changes a value for this process only. Invalid values are
// rejected and the previous value is kept.
func (m *Manager) Override(key string, value interface{}) error {
	prev := m.v.Get(key)
	m.v.Set(key, value)
	if err := m.reload(); err != nil {
		m.v.Set(key, prev)
		return err
	}
	return nil
}

// Set changes a value and saves the file. Only the file contents plus key
// are written; environment and Override values stay out of the file.
func (m *Manager) Set(key string, value interface{}) error {
	if err := m.Override(key, value); err != nil {
		return err
	}

	fv, err := m.fileViper()
	if err != nil {
		return err
	}
	fv.Set(key, value)
	return m.write(fv)
}

// Save writes the file-backed configuration to disk.
func (m *Manager) Save() error {
	fv, err := m.fileViper()
	if err != nil {
		return err
	}
	return m.write(fv)
}

// fileViper loads defaults and the config file, without environment or
// process overrides.
func (m *Manager) fileViper() (*viper.Viper, error) {
	fv := viper.New()
	setDefaults(fv)
	fv.SetConfigFile(m.configPath)
	fv.SetConfigType("yaml")
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return fv, nil
}

func (m *Manager) write(fv *viper.Viper) error {
	var cfg Config
	if err := fv.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
