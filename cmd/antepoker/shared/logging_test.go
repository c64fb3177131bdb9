package shared

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "warn", false, false)
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	logger, err = newLogger(&buf, "warn", true, false)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	logger, err = newLogger(&buf, "", false, false)
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())

	_, err = newLogger(&buf, "loud", false, false)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", false, true)
	require.NoError(t, err)

	logger.Info("Match complete", "rounds", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Match complete", line["msg"])
	assert.Equal(t, float64(3), line["rounds"])
}
