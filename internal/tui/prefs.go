package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs holds review-UI preferences that persist across sessions.
type Prefs struct {
	// MaskMatches controls whether matched values are masked in the table
	// and detail pane. Defaults to true so a review session does not
	// display the data it is hunting.
	MaskMatches bool `json:"mask_matches"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{
		MaskMatches: true,
	}
}

// prefsPath follows the global config layout: XDG_CONFIG_HOME when set,
// otherwise ~/.config.
func prefsPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "veilscan", "tui_prefs.json"), nil
}

// LoadPrefs loads preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()

	path, err := prefsPath()
	if err != nil {
		return prefs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}

	// A corrupt file falls back to defaults
	_ = json.Unmarshal(data, &prefs)
	return prefs
}

// SavePrefs persists preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// maskMatch hides the middle of a matched value. Kept in sync with the
// report output masking so both surfaces show the same thing.
func maskMatch(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
