// Package paths provides XDG-compliant path resolution for quickspell.
//
// Resolution order:
// 1. QUICKSPELL_HOME (portable root) → $QUICKSPELL_HOME/{config,data}
// 2. XDG env vars → $XDG_*_HOME/quickspell
// 3. Platform defaults → ~/.config/quickspell, ~/.local/share/quickspell
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if qsHome := os.Getenv("QUICKSPELL_HOME"); qsHome != "" {
		return filepath.Join(qsHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if qsHome := os.Getenv("QUICKSPELL_HOME"); qsHome != "" {
		return filepath.Join(qsHome, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// ConfigDir returns the quickspell configuration directory.
// Used for quickspell.yml and the spells directory.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "quickspell")
}

// DataDir returns the quickspell data directory.
// Used for logs and the invocation history file.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "quickspell")
}

// SpellsDir returns the default directory containing spell definitions.
func SpellsDir() string {
	cfg := ConfigDir()
	if cfg == "" {
		return ""
	}
	return filepath.Join(cfg, "spells")
}

// SocketPath returns the default daemon control socket path.
func SocketPath() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "quickspell.sock")
}

// PidFilePath returns the daemon pidfile path.
func PidFilePath() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "quickspell.pid")
}

// HistoryPath returns the default invocation history file path.
func HistoryPath() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "history.yml")
}
