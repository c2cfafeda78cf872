package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	employeesFile  = "employees"
	activitiesFile = "activities"
	usersFile      = "users"
)

// Persistence writes each collection as a JSON array under DataDir.
type Persistence struct {
	DataDir string
	mu      sync.Mutex
}

func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Persistence{DataDir: dir}, nil
}

// Save replaces the collection file atomically via a temp file and rename.
func (p *Persistence) Save(collection string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	path := p.path(collection)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

// Load decodes the collection into v. A missing file leaves v untouched.
func (p *Persistence) Load(collection string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", collection, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}

	return nil
}

func (p *Persistence) path(collection string) string {
	return filepath.Join(p.DataDir, collection+".json")
}
