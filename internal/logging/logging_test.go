package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"wbtracker/internal/logging"
)

func TestNew(t *testing.T) {
	l, err := logging.New("warn", true)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = logging.New("loud", false)
	assert.Error(t, err)

	assert.NotNil(t, logging.OrNop(nil))
}
