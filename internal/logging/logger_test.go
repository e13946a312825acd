package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("warn", "json", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("stage failed", zap.String("stage", "native-compile"), zap.Int("exit_code", 1))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "stage failed", entry["msg"])
	assert.Equal(t, "native-compile", entry["stage"])
	assert.EqualValues(t, 1, entry["exit_code"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("debug", "console", &buf)
	require.NoError(t, err)

	log.Debug("artifact observed", zap.String("path", "/w/out.ll"))
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "/w/out.ll")
}

func TestNewWithWriter_RejectsBadInput(t *testing.T) {
	_, err := NewWithWriter("loud", "console", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
