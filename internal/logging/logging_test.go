package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		level string
		want  zap.AtomicLevel
	}{
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"info", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"error", zap.NewAtomicLevelAt(zap.ErrorLevel)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.level, func(t *testing.T) {
			logger, err := New(testCase.level, "console")
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(testCase.want.Level()))
			assert.False(t, logger.Core().Enabled(testCase.want.Level()-1))
		})
	}
}

func TestNew_RejectsUnknown(t *testing.T) {
	_, err := New("verbose", "")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}
