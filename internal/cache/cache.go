package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// DB maps root-relative file paths to content hashes (xxhash hex). Files
// whose hash is unchanged since the last scan are skipped.
type DB struct {
	Entries map[string]string `json:"entries"`
}

func defaultPath(root string) string {
	// Keep the cache under .git so it cannot be committed by accident;
	// fall back to the root for plain directories.
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "veilscancache.json")
	}
	return filepath.Join(root, ".veilscancache.json")
}

func Load(root string) (DB, error) {
	var db DB
	p := defaultPath(root)
	f, err := os.ReadFile(p)
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	p := defaultPath(root)
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(p, b, 0644)
}
