package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	AppEnv        string `mapstructure:"APP_ENV"`        // "production" switches gin to release mode

	// Plugin Registration
	PluginName        string `mapstructure:"PLUGIN_NAME"`
	PluginDisplayName string `mapstructure:"PLUGIN_DISPLAY_NAME"`

	// Panel Behaviour
	DebounceQuietMS    int `mapstructure:"DEBOUNCE_QUIET_MS"`    // quiet period before an edit is validated
	MemoTTLSeconds     int `mapstructure:"MEMO_TTL_SECONDS"`     // lifetime of cached validation and prompt results
	MemoSweepSeconds   int `mapstructure:"MEMO_SWEEP_SECONDS"`   // 0 disables the background sweep
	SessionIdleMinutes int `mapstructure:"SESSION_IDLE_MINUTES"` // idle panels are closed after this long

	// Fault Reporting
	FaultWindowSeconds int `mapstructure:"FAULT_WINDOW_SECONDS"`
	FaultCap           int `mapstructure:"FAULT_CAP"` // identical faults logged per window

	// AI Configuration
	OpenAIKey         string `mapstructure:"OPENAI_API_KEY"`      // empty disables the code preview
	OpenAIModel       string `mapstructure:"OPENAI_MODEL"`        // e.g., "gpt-4o"
	PreviewThrottleMS int    `mapstructure:"PREVIEW_THROTTLE_MS"` // minimum gap between previews per panel
}

var defaults = map[string]interface{}{
	"SERVER_ADDRESS":       ":8080",
	"APP_ENV":              "development",
	"PLUGIN_NAME":          "animation-config",
	"PLUGIN_DISPLAY_NAME":  "Animation",
	"DEBOUNCE_QUIET_MS":    300,
	"MEMO_TTL_SECONDS":     300,
	"MEMO_SWEEP_SECONDS":   60,
	"SESSION_IDLE_MINUTES": 30,
	"FAULT_WINDOW_SECONDS": 10,
	"FAULT_CAP":            3,
	"OPENAI_API_KEY":       "",
	"OPENAI_MODEL":         "gpt-4o",
	"PREVIEW_THROTTLE_MS":  2000,
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)     // Path to look for the config file in
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv() // Read environment variables that match keys

	err = v.ReadInConfig()
	if err != nil {
		// If config file not found, log it but continue if env vars might be set
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Info: config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Info: using configuration file: %s", v.ConfigFileUsed())
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	if config.OpenAIKey == "" {
		log.Println("WARN: OPENAI_API_KEY is not set. Animation code preview is disabled.")
	}
	return
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	if c.DebounceQuietMS <= 0 {
		return fmt.Errorf("DEBOUNCE_QUIET_MS must be positive, got %d", c.DebounceQuietMS)
	}
	if c.MemoTTLSeconds <= 0 {
		return fmt.Errorf("MEMO_TTL_SECONDS must be positive, got %d", c.MemoTTLSeconds)
	}
	if c.MemoSweepSeconds < 0 || c.SessionIdleMinutes <= 0 || c.FaultWindowSeconds <= 0 || c.FaultCap <= 0 || c.PreviewThrottleMS < 0 {
		return fmt.Errorf("invalid timing configuration: %+v", c.redacted())
	}
	return nil
}

func (c Config) redacted() Config {
	if c.OpenAIKey != "" {
		c.OpenAIKey = "***"
	}
	return c
}

func (c Config) DebounceQuiet() time.Duration {
	return time.Duration(c.DebounceQuietMS) * time.Millisecond
}

func (c Config) MemoTTL() time.Duration {
	return time.Duration(c.MemoTTLSeconds) * time.Second
}

func (c Config) MemoSweepInterval() time.Duration {
	return time.Duration(c.MemoSweepSeconds) * time.Second
}

func (c Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c Config) FaultWindow() time.Duration {
	return time.Duration(c.FaultWindowSeconds) * time.Second
}

func (c Config) PreviewThrottle() time.Duration {
	return time.Duration(c.PreviewThrottleMS) * time.Millisecond
}
