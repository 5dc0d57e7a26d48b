package commands

import (
	"fmt"
	"os"

	"github.com/theater-rt/theater/internal/registry"
)

// defaultRegistryDBPath returns ~/.theater/registry.db, expanding the home
// directory the same way theaterd's own -registry-db default does.
func defaultRegistryDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return home + "/.theater/registry.db", nil
}

// openRegistry opens the actor-process registry at --registry-db (or the
// default path), read-only in spirit: every subcommand here only queries,
// never mutates.
func openRegistry() (*registry.Store, error) {
	path := registryDBPath
	if path == "" {
		var err error
		path, err = defaultRegistryDBPath()
		if err != nil {
			return nil, err
		}
	}

	store, err := registry.Open(registry.Config{
		DatabaseFileName: path,
		SkipMigrations:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("opening registry at %s: %w", path, err)
	}

	return store, nil
}
