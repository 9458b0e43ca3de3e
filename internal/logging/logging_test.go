package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", false)
	log.Info().Msg("hidden")
	log.Warn().Str("slot", "2026-02-18:fajr:15").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"slot":"2026-02-18:fajr:15"`)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupWriterDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
