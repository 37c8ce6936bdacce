/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"errors"
	"net/url"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/httpclient"
)

// Default values.
const (
	DefaultBaseURL   = "https://ismp.crpt.ru"
	DefaultUserAgent = "go-crptapi"
)

const (
	cfgDefaultKeyPrefix = "crpt"
	cfgKeyBaseURL       = "baseURL"
	cfgKeyUserAgent     = "userAgent"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// Config represents a set of configuration parameters for Client.
// HTTP client parameters (timeout, waitTimeout, logger, metrics) live under the same key prefix.
type Config struct {
	BaseURL    string            `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`
	UserAgent  string            `mapstructure:"userAgent" yaml:"userAgent" json:"userAgent"`
	HTTPClient httpclient.Config `mapstructure:",squash" yaml:",inline"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		HTTPClient: *httpclient.NewDefaultConfig(),
		keyPrefix:  cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyUserAgent, DefaultUserAgent)
	c.HTTPClient.SetProviderDefaults(dp)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	baseURL, err := dp.GetString(cfgKeyBaseURL)
	if err != nil {
		return err
	}
	if err = validateBaseURL(baseURL); err != nil {
		return dp.WrapKeyErr(cfgKeyBaseURL, err)
	}
	c.BaseURL = baseURL

	if c.UserAgent, err = dp.GetString(cfgKeyUserAgent); err != nil {
		return err
	}

	return c.HTTPClient.Set(dp)
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return errors.New("cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host cannot be empty")
	}
	return nil
}
