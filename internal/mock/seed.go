package mock

import (
	"encoding/json"
	"fmt"
	"os"

	"apiplay/internal/model"
)

// LoadSeed reads the initial user records from a JSON array file. An empty
// path yields DefaultUsers.
func LoadSeed(path string) ([]model.User, error) {
	if path == "" {
		return DefaultUsers(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	users := []model.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	return users, nil
}

// NewStore builds the named store backend ("memory" or "sqlite")
func NewStore(kind string, seed []model.User) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(seed), nil
	case "sqlite":
		return NewSQLiteStore(seed)
	}
	return nil, fmt.Errorf("unknown store backend %q", kind)
}
