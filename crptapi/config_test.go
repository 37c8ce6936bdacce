/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/httpclient"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name       string
		yamlData   string
		check      func(t *testing.T, cfg *Config)
		wantErrMsg string
	}{
		{
			name:     "defaults",
			yamlData: "crpt: {}\n",
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, DefaultBaseURL, cfg.BaseURL)
				require.Equal(t, DefaultUserAgent, cfg.UserAgent)
				require.Equal(t, httpclient.DefaultTimeout, cfg.HTTPClient.Timeout)
				require.True(t, cfg.HTTPClient.Logger.Enabled)
				require.Equal(t, httpclient.DefaultLoggingMode, cfg.HTTPClient.Logger.Mode)
				require.False(t, cfg.HTTPClient.Metrics.Enabled)
			},
		},
		{
			name: "all values",
			yamlData: `
crpt:
  baseURL: https://markirovka.sandbox.crptech.ru
  userAgent: my-shop
  timeout: 10s
  waitTimeout: 1m
  logger:
    enabled: true
    mode: all
    slowRequestThreshold: 500ms
  metrics:
    enabled: true
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "https://markirovka.sandbox.crptech.ru", cfg.BaseURL)
				require.Equal(t, "my-shop", cfg.UserAgent)
				require.Equal(t, 10*time.Second, cfg.HTTPClient.Timeout)
				require.Equal(t, time.Minute, cfg.HTTPClient.WaitTimeout)
				require.Equal(t, httpclient.LoggingModeAll, cfg.HTTPClient.Logger.Mode)
				require.Equal(t, config.TimeDuration(500*time.Millisecond), cfg.HTTPClient.Logger.SlowRequestThreshold)
				require.True(t, cfg.HTTPClient.Metrics.Enabled)
			},
		},
		{
			name:       "base URL without scheme",
			yamlData:   "crpt:\n  baseURL: ismp.crpt.ru\n",
			wantErrMsg: "crpt.baseURL: scheme must be http or https",
		},
		{
			name:       "empty base URL",
			yamlData:   "crpt:\n  baseURL: \"\"\n",
			wantErrMsg: "crpt.baseURL: cannot be empty",
		},
		{
			name:       "negative timeout",
			yamlData:   "crpt:\n  timeout: -1s\n",
			wantErrMsg: "crpt.timeout: cannot be negative",
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.yamlData), config.DataTypeYAML, cfg)
			if tt.wantErrMsg != "" {
				require.EqualError(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
