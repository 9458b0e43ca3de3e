package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

func TestPreferenceFileDefaultsToDisabled(t *testing.T) {
	f := NewPreferenceFile(t.TempDir())

	pref, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Preference{Enabled: false, Locale: model.LocaleTR}, pref)
}

func TestPreferenceFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f := NewPreferenceFile(dir)

	require.NoError(t, f.Save(model.Preference{Enabled: true, Locale: model.LocaleEN}))
	raw, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "locale: en")

	pref, err := NewPreferenceFile(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, model.Preference{Enabled: true, Locale: model.LocaleEN}, pref)
}

func TestPreferenceFileNormalisesLocale(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, preferenceFileName), []byte("enabled: true\nlocale: fr\n"), 0o644))

	pref, err := NewPreferenceFile(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, model.LocaleTR, pref.Locale)
	assert.True(t, pref.Enabled)
}
