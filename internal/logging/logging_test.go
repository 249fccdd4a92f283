// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.LogConfig
		wantLevel zapcore.Level
		errMsg    string
	}{
		{name: "defaults", cfg: types.LogConfig{}, wantLevel: zapcore.WarnLevel},
		{name: "debug console", cfg: types.LogConfig{Level: "debug", Format: types.LogConsole}, wantLevel: zapcore.DebugLevel},
		{name: "info json", cfg: types.LogConfig{Level: "info", Format: types.LogJSON}, wantLevel: zapcore.InfoLevel},
		{name: "bad level", cfg: types.LogConfig{Level: "loud"}, errMsg: "parsing log level"},
		{name: "bad format", cfg: types.LogConfig{Format: "xml"}, errMsg: "unsupported log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
