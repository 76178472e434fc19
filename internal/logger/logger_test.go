package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONFile(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "fieldmap.log")
	l := &Logger{Level: "warn", Format: "json", File: path}
	l.Setup()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("Hidden")
	log.Warn().Str("id", "gf-1").Msg("Shown")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Hidden")
	assert.Contains(t, string(data), `"id":"gf-1"`)
	assert.Contains(t, string(data), `"message":"Shown"`)
}

func TestSetupBadLevel(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	l := &Logger{Level: "loud"}
	l.Setup()
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.NoError(t, l.Close())
}
