// Package config loads the quickspell application configuration. The file
// lives in the XDG config directory as quickspell.yml or quickspell.toml;
// every field has a working default so a missing file is not an error.
package config

import (
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/pkg/paths"
	"github.com/quickspell/core/session"
)

// ServerConfig controls the local control socket.
type ServerConfig struct {
	// Socket is the unix socket path the daemon listens on.
	Socket string `yaml:"socket,omitempty" toml:"socket,omitempty" mapstructure:"socket"`
}

// WatchConfig controls hot-reload of the spells directory.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	DebounceMS int  `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" mapstructure:"debounce_ms"`
}

// HistoryConfig controls invocation history recording.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path,omitempty" toml:"path,omitempty" mapstructure:"path"`
}

// Config is the full application configuration.
type Config struct {
	// SpellsDir holds the spell definition files.
	SpellsDir string `yaml:"spells_dir,omitempty" toml:"spells_dir,omitempty" mapstructure:"spells_dir"`

	// ResourcesDir is the working directory providers and actions run in.
	ResourcesDir string `yaml:"resources_dir,omitempty" toml:"resources_dir,omitempty" mapstructure:"resources_dir"`

	// RootSpell names the spell anchoring the root frame.
	RootSpell string `yaml:"root_spell,omitempty" toml:"root_spell,omitempty" mapstructure:"root_spell"`

	// TopN caps the item window exposed in snapshots.
	TopN int `yaml:"top_n,omitempty" toml:"top_n,omitempty" mapstructure:"top_n"`

	Server  ServerConfig   `yaml:"server,omitempty" toml:"server,omitempty" mapstructure:"server"`
	Watch   WatchConfig    `yaml:"watch,omitempty" toml:"watch,omitempty" mapstructure:"watch"`
	History HistoryConfig  `yaml:"history,omitempty" toml:"history,omitempty" mapstructure:"history"`
	Logging logging.Config `yaml:"logging,omitempty" toml:"logging,omitempty" mapstructure:"logging"`
}

// Default returns a configuration with every field set to its working
// default.
func Default() *Config {
	return &Config{
		SpellsDir: paths.SpellsDir(),
		RootSpell: "main",
		TopN:      session.DefaultTopN,
		Server: ServerConfig{
			Socket: paths.SocketPath(),
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 500,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    paths.HistoryPath(),
		},
	}
}

// applyDefaults fills zero-valued fields in place.
func (c *Config) applyDefaults() {
	def := Default()
	if c.SpellsDir == "" {
		c.SpellsDir = def.SpellsDir
	}
	if c.RootSpell == "" {
		c.RootSpell = def.RootSpell
	}
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.Server.Socket == "" {
		c.Server.Socket = def.Server.Socket
	}
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = def.Watch.DebounceMS
	}
	if c.History.Path == "" {
		c.History.Path = def.History.Path
	}
}
