package logging_test

import (
	"testing"

	"github.com/garagon/skillaudit/internal/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		warn  bool
	}{
		{level: "", debug: false, warn: true},
		{level: "debug", debug: true, warn: true},
		{level: "INFO", debug: false, warn: true},
		{level: "error", debug: false, warn: false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := logging.New(tt.level)
			require.NoError(t, err)
			require.Equal(t, tt.debug, logger.Core().Enabled(zap.DebugLevel))
			require.Equal(t, tt.warn, logger.Core().Enabled(zap.WarnLevel))
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logging.New("verbose")
	require.Error(t, err)
}
