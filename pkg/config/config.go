package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Transport TransportConfig `mapstructure:"transport"`
	Loading   LoadingConfig   `mapstructure:"loading"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Session   SessionConfig   `mapstructure:"session"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"` // For parsing string duration
}

// TransportConfig controls how generation streams are opened
type TransportConfig struct {
	// Mode is one of auto, sse or poll
	Mode            string        `mapstructure:"mode"`
	PollInterval    time.Duration `mapstructure:"-"`
	PollIntervalStr string        `mapstructure:"poll_interval"`
	MaxRecordSize   int           `mapstructure:"max_record_size"`
}

// LoadingConfig holds the loading message rotator settings
type LoadingConfig struct {
	Interval    time.Duration `mapstructure:"-"`
	IntervalStr string        `mapstructure:"interval"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
}

// SessionConfig holds defaults used when creating sessions
type SessionConfig struct {
	DefaultProfile string `mapstructure:"default_profile"`
}

const (
	TransportAuto = "auto"
	TransportSSE  = "sse"
	TransportPoll = "poll"
)

var (
	// Global config instance
	cfg *Config
)

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	// .env is optional; values already in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.deckchat") // Check project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "deckchat"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.AutomaticEnv()
	bindEnvironmentVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(loaded); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}

	if err := validate(loaded); err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

// Set installs c as the global config. Tests and embedders use it instead of Load.
func Set(c *Config) {
	cfg = c
}

// Default returns a config populated only from built-in defaults
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    30 * time.Second,
			TimeoutStr: "30s",
		},
		Transport: TransportConfig{
			Mode:            TransportAuto,
			PollInterval:    time.Second,
			PollIntervalStr: "1s",
			MaxRecordSize:   8 << 20,
		},
		Loading: LoadingConfig{
			Interval:    3 * time.Second,
			IntervalStr: "3s",
		},
		Logging: LoggingConfig{
			LogFile: "./.deckchat/system.log",
			Level:   "info",
			Format:  "text",
		},
	}
}

// setDefaults sets all default configuration values
func setDefaults() {
	d := Default()

	viper.SetDefault("api.base_url", d.API.BaseURL)
	viper.SetDefault("api.token", "")
	viper.SetDefault("api.timeout", d.API.TimeoutStr)

	viper.SetDefault("transport.mode", d.Transport.Mode)
	viper.SetDefault("transport.poll_interval", d.Transport.PollIntervalStr)
	viper.SetDefault("transport.max_record_size", d.Transport.MaxRecordSize)

	viper.SetDefault("loading.interval", d.Loading.IntervalStr)

	viper.SetDefault("logging.log_file", d.Logging.LogFile)
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)

	viper.SetDefault("session.default_profile", "")
}

// bindEnvironmentVariables binds specific environment variables to Viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("api.base_url", "DECKCHAT_API_URL")
	viper.BindEnv("api.token", "DECKCHAT_API_TOKEN")
	viper.BindEnv("api.timeout", "DECKCHAT_API_TIMEOUT")
	viper.BindEnv("transport.mode", "DECKCHAT_TRANSPORT")
	viper.BindEnv("transport.poll_interval", "DECKCHAT_POLL_INTERVAL")
	viper.BindEnv("loading.interval", "DECKCHAT_LOADING_INTERVAL")
	viper.BindEnv("logging.log_file", "DECKCHAT_LOG_FILE")
	viper.BindEnv("logging.level", "DECKCHAT_LOG_LEVEL")
	viper.BindEnv("logging.format", "DECKCHAT_LOG_FORMAT")
	viper.BindEnv("logging.preserve", "DECKCHAT_LOG_PRESERVE")
	viper.BindEnv("session.default_profile", "DECKCHAT_PROFILE")
}

// processDurations converts string durations to time.Duration
func processDurations(cfg *Config) error {
	durations := []struct {
		key    string
		raw    string
		target *time.Duration
		def    time.Duration
	}{
		{"api.timeout", cfg.API.TimeoutStr, &cfg.API.Timeout, 30 * time.Second},
		{"transport.poll_interval", cfg.Transport.PollIntervalStr, &cfg.Transport.PollInterval, time.Second},
		{"loading.interval", cfg.Loading.IntervalStr, &cfg.Loading.Interval, 3 * time.Second},
	}

	for _, d := range durations {
		if d.raw == "" {
			*d.target = d.def
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	return nil
}

func validate(cfg *Config) error {
	switch cfg.Transport.Mode {
	case TransportAuto, TransportSSE, TransportPoll:
	case "":
		cfg.Transport.Mode = TransportAuto
	default:
		return fmt.Errorf("invalid transport.mode %q (want auto, sse or poll)", cfg.Transport.Mode)
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}

	if cfg.Transport.MaxRecordSize <= 0 {
		cfg.Transport.MaxRecordSize = 8 << 20
	}

	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// WriteDefaults writes a settings file holding every default value.
// An existing file is left untouched.
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	d := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("api.base_url", d.API.BaseURL)
	v.Set("api.token", "")
	v.Set("api.timeout", d.API.TimeoutStr)
	v.Set("transport.mode", d.Transport.Mode)
	v.Set("transport.poll_interval", d.Transport.PollIntervalStr)
	v.Set("transport.max_record_size", d.Transport.MaxRecordSize)
	v.Set("loading.interval", d.Loading.IntervalStr)
	v.Set("logging.log_file", d.Logging.LogFile)
	v.Set("logging.preserve", false)
	v.Set("logging.level", d.Logging.Level)
	v.Set("logging.format", d.Logging.Format)
	v.Set("session.default_profile", "")

	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write default configuration: %w", err)
	}
	return nil
}
