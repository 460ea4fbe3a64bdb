package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdrpinto/gridastar/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		cfg   config.LoggingConfig
		debug bool
		warn  bool
	}{
		{config.LoggingConfig{Level: "debug", Format: "console"}, true, true},
		{config.LoggingConfig{Level: "warn", Format: "json"}, false, true},
		{config.LoggingConfig{Level: "loud", Format: "console"}, false, true},
		{config.LoggingConfig{Level: "error", Format: "json"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Level+"/"+tt.cfg.Format, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.warn, log.Core().Enabled(zapcore.WarnLevel))
		})
	}
}
