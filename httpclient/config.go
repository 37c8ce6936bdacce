/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"errors"
	"strings"
	"time"

	"github.com/acronis/go-crptapi/config"
)

// Default values.
const (
	DefaultTimeout              = 30 * time.Second
	DefaultLoggingMode          = LoggingModeFailed
	DefaultSlowRequestThreshold = time.Second
)

const (
	cfgKeyTimeout                    = "timeout"
	cfgKeyWaitTimeout                = "waitTimeout"
	cfgKeyLoggerEnabled              = "logger.enabled"
	cfgKeyLoggerMode                 = "logger.mode"
	cfgKeyLoggerSlowRequestThreshold = "logger.slowRequestThreshold"
	cfgKeyMetricsEnabled             = "metrics.enabled"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// LoggerConfig represents configuration options for HTTP client logs.
type LoggerConfig struct {
	// Enabled is a flag that enables logging.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// SlowRequestThreshold is a threshold for slow requests.
	SlowRequestThreshold config.TimeDuration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`

	// Mode of logging: none, all, failed.
	Mode LoggingMode `mapstructure:"mode" yaml:"mode" json:"mode"`
}

// TransportOpts returns transport options.
func (c *LoggerConfig) TransportOpts() LoggingRoundTripperOpts {
	return LoggingRoundTripperOpts{
		Mode:                 c.Mode,
		SlowRequestThreshold: time.Duration(c.SlowRequestThreshold),
	}
}

// MetricsConfig represents configuration options for HTTP client metrics.
type MetricsConfig struct {
	// Enabled is a flag that enables metrics.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// Config represents options for HTTP client configuration.
type Config struct {
	// Timeout is the time limit for a request once it has been admitted by the rate limiter.
	// The wait for a permit is not included. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	// WaitTimeout bounds the wait for a rate limiting permit. Zero means the wait is bounded only by the request context.
	WaitTimeout time.Duration `mapstructure:"waitTimeout" yaml:"waitTimeout" json:"waitTimeout"`

	// Logger is a configuration for HTTP client logs.
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger" json:"logger"`

	// Metrics is a configuration for HTTP client metrics.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix("")
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Logger: LoggerConfig{
			Enabled:              true,
			Mode:                 DefaultLoggingMode,
			SlowRequestThreshold: config.TimeDuration(DefaultSlowRequestThreshold),
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTimeout, DefaultTimeout)
	dp.SetDefault(cfgKeyLoggerEnabled, true)
	dp.SetDefault(cfgKeyLoggerMode, string(DefaultLoggingMode))
	dp.SetDefault(cfgKeyLoggerSlowRequestThreshold, DefaultSlowRequestThreshold)
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Timeout, err = getNonNegativeDuration(dp, cfgKeyTimeout); err != nil {
		return err
	}
	if c.WaitTimeout, err = getNonNegativeDuration(dp, cfgKeyWaitTimeout); err != nil {
		return err
	}

	if c.Logger.Enabled, err = dp.GetBool(cfgKeyLoggerEnabled); err != nil {
		return err
	}
	if c.Logger.Enabled {
		var mode string
		if mode, err = dp.GetStringFromSet(cfgKeyLoggerMode, availableLoggingModes, true); err != nil {
			return err
		}
		c.Logger.Mode = LoggingMode(strings.ToLower(mode))

		var threshold time.Duration
		if threshold, err = getNonNegativeDuration(dp, cfgKeyLoggerSlowRequestThreshold); err != nil {
			return err
		}
		c.Logger.SlowRequestThreshold = config.TimeDuration(threshold)
	}

	if c.Metrics.Enabled, err = dp.GetBool(cfgKeyMetricsEnabled); err != nil {
		return err
	}

	return nil
}

var availableLoggingModes = []string{string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed)}

func getNonNegativeDuration(dp config.DataProvider, key string) (time.Duration, error) {
	d, err := dp.GetDuration(key)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, dp.WrapKeyErr(key, errors.New("cannot be negative"))
	}
	return d, nil
}
