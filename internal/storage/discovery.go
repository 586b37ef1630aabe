package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiscoverDatabase finds the database to use.
//
// SLEUTH_DB_PATH wins when set. Otherwise the current directory and its
// parents are searched for .sleuth/sleuth.db, so investigations started
// from a subdirectory share the project's history. When nothing is found
// the database is created in the current directory.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("SLEUTH_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	if found, ok := discoverDatabaseFromDir(dir); ok {
		return found, nil
	}
	return filepath.Join(dir, DefaultPath), nil
}

// discoverDatabaseFromDir walks up from startDir looking for an existing database.
func discoverDatabaseFromDir(startDir string) (string, bool) {
	dir := filepath.Clean(startDir)

	for {
		candidate := filepath.Join(dir, DefaultPath)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", false
		}
		dir = parent
	}
}

// GetProjectRoot returns the directory containing the .sleuth/ directory
// that holds dbPath.
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != ".sleuth" {
		return "", fmt.Errorf("database must be in a .sleuth/ directory, got: %s", dbPath)
	}
	return filepath.Dir(dbDir), nil
}
