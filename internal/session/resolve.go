package session

import "github.com/matheus3301/mesa/internal/config"

// DefaultTableName is used when neither the flag nor the config names a table.
const DefaultTableName = "table-1"

// Resolve determines the active table session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_table
// 3. "table-1"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultTable != "" {
		return cfg.DefaultTable
	}
	return DefaultTableName
}
