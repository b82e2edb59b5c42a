package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mwantia/poifilters/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Warn, Parse(" WARNING "))
	assert.Equal(t, Error, Parse("error"))
	assert.Equal(t, Info, Parse("nonsense"))
	assert.Equal(t, "FATAL", Fatal.String())
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("catalog", config.LogConfig{
		Level:      "WARN",
		TimeFormat: "15:04:05",
		NoColor:    true,
	}, &buf)

	logger.Info("dropped %d", 1)
	logger.Warn("kept %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept 2")
	assert.Contains(t, out, "[catalog]")
	assert.NotContains(t, out, "\033[")
}

func TestLogger_JSONNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("poifilters", config.LogConfig{
		Level: "DEBUG",
		JSON:  true,
	}, &buf).Named("store")

	logger.Debug("loaded %d filters", 3)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "poifilters/store", entry.Service)
	assert.Equal(t, "loaded 3 filters", entry.Message)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing")
	logger.Named("x").Warn("nothing")
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger("catalog", config.LogConfig{
		Level:   "DEBUG",
		NoColor: true,
	}, &buf)

	logger := base.With("filter", "user_food").With("err", errors.New("boom"))
	logger.Warn("create failed")
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "create failed filter=user_food err=boom"))
	assert.True(t, strings.HasSuffix(lines[1], "[catalog] plain"))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("store", config.LogConfig{
		Level: "INFO",
		JSON:  true,
	}, &buf).With("rows", 2)

	logger.Info("loaded")

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "loaded", entry.Message)
	assert.EqualValues(t, 2, entry.Fields["rows"])
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	impl := newLogger("", config.LogConfig{NoColor: true}, &buf)

	code := -1
	impl.exit = func(c int) { code = c }

	impl.Fatal("stop")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL stop")
}
