package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

const preferenceFileName = "notifications.yaml"

// PreferenceFile persists the notification preference as YAML in the data dir.
// Notifications stay off until the user enables them.
type PreferenceFile struct {
	path string
	mu   sync.Mutex
}

func NewPreferenceFile(dataDir string) *PreferenceFile {
	return &PreferenceFile{path: filepath.Join(dataDir, preferenceFileName)}
}

func (f *PreferenceFile) Path() string { return f.path }

// Load returns the stored preference, or the disabled Turkish default when
// nothing has been stored yet.
func (f *PreferenceFile) Load() (model.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pref := model.Preference{Enabled: false, Locale: model.LocaleTR}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return pref, nil
	}
	if err != nil {
		return pref, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(raw, &pref); err != nil {
		return model.Preference{Locale: model.LocaleTR}, fmt.Errorf("decode preferences: %w", err)
	}
	pref.Locale = model.ParseLocale(string(pref.Locale))
	return pref, nil
}

// Save writes pref atomically.
func (f *PreferenceFile) Save(pref model.Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := yaml.Marshal(pref)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
