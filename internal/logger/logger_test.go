package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("warn", "json", buf)

	log.Info().Msg("hidden")
	log.Warn().Str(FieldSource, "BANK").Msg("header moved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "BANK", entry[FieldSource])
	assert.Equal(t, "header moved", entry["message"])
}

func TestNew_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("debug", "console", buf)

	log.Debug().Msg("fetching sources")

	assert.Contains(t, buf.String(), "fetching sources")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}
