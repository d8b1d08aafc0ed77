package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.mesa.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mesa")
}

// Dir returns the table-session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "tables", name)
}

// LockPath returns the lock file path for a table session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// StateDBPath returns the local state database path for a table session.
func StateDBPath(name string) string {
	return filepath.Join(Dir(name), "state.db")
}

// LogDir returns the log directory for a table session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "mesad.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
