/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"errors"
	"time"

	"github.com/acronis/go-crptapi/config"
)

const cfgDefaultKeyPrefix = "rateLimit"

const (
	cfgKeyWindow          = "window"
	cfgKeyCapacity        = "capacity"
	cfgKeyShutdownTimeout = "shutdownTimeout"
)

// Default values.
const (
	DefaultWindow          = time.Minute
	DefaultCapacity        = 1
	DefaultShutdownTimeout = time.Second * 5
)

// Config represents a set of configuration parameters for WindowLimiter.
type Config struct {
	Window          config.TimeDuration `mapstructure:"window" yaml:"window" json:"window"`
	Capacity        int                 `mapstructure:"capacity" yaml:"capacity" json:"capacity"`
	ShutdownTimeout config.TimeDuration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config. Parameters are read under the "rateLimit" key.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the rate limiter in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyWindow, DefaultWindow)
	dp.SetDefault(cfgKeyCapacity, DefaultCapacity)
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout)
}

// Set sets rate limiter configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	window, err := dp.GetDuration(cfgKeyWindow)
	if err != nil {
		return err
	}
	if window <= 0 {
		return dp.WrapKeyErr(cfgKeyWindow, errors.New("must be positive"))
	}
	c.Window = config.TimeDuration(window)

	if c.Capacity, err = dp.GetInt(cfgKeyCapacity); err != nil {
		return err
	}
	if c.Capacity < 1 {
		return dp.WrapKeyErr(cfgKeyCapacity, errors.New("must be positive"))
	}

	shutdownTimeout, err := dp.GetDuration(cfgKeyShutdownTimeout)
	if err != nil {
		return err
	}
	if shutdownTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyShutdownTimeout, errors.New("cannot be negative"))
	}
	c.ShutdownTimeout = config.TimeDuration(shutdownTimeout)
	return nil
}
