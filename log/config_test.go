/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgData     string
		expectedCfg func() *Config
		wantErrMsg  string
	}{
		{
			name:        "defaults",
			cfgData:     "log: {}\n",
			expectedCfg: NewDefaultConfig,
		},
		{
			name: "file output",
			cfgData: `
log:
  level: WARN
  format: text
  output: file
  file:
    path: crptapi.log
    rotation:
      compress: true
      maxSize: 100M
      maxBackups: 42
  addCaller: true
  error:
    noVerbose: true
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Level = LevelWarn
				cfg.Format = FormatText
				cfg.Output = OutputFile
				cfg.File.Path = "crptapi.log"
				cfg.File.Rotation.Compress = true
				cfg.File.Rotation.MaxSize = 100 * 1024 * 1024
				cfg.File.Rotation.MaxBackups = 42
				cfg.AddCaller = true
				cfg.Error.NoVerbose = true
				return cfg
			},
		},
		{
			name:       "unknown level",
			cfgData:    "log:\n  level: trace\n",
			wantErrMsg: `log.level: unknown value "trace"`,
		},
		{
			name:       "file output without path",
			cfgData:    "log:\n  output: file\n",
			wantErrMsg: `log.file.path: cannot be empty when "file" output is used`,
		},
		{
			name:       "too small rotation size",
			cfgData:    "log:\n  file:\n    rotation:\n      maxSize: 1K\n",
			wantErrMsg: "log.file.rotation.maxSize: should be >= 1M",
		},
		{
			name:       "too few backups",
			cfgData:    "log:\n  file:\n    rotation:\n      maxBackups: 0\n",
			wantErrMsg: "log.file.rotation.maxBackups: should be >= 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErrMsg != "" {
				require.ErrorContains(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}
