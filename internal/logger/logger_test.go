package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WarnLevel, Output: &buf})

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestNew_JSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DebugLevel, Output: &buf, JSON: true})

	log.With("run", "abc").Debug("chunked", "chunks", 3)

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "chunked", entry["msg"])
	assert.Equal(t, "abc", entry["run"])
	assert.EqualValues(t, 3, entry["chunks"])
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.Error("dropped")
		log.With("a", 1).Info("dropped")
	})
}
