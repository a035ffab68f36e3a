package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/pkg/paths"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// candidateNames, in precedence order, inside the config directory.
var candidateNames = []string{
	"quickspell.yml",
	"quickspell.yaml",
	"quickspell.toml",
}

// Load reads a config file. Values are layered over Default, so a sparse
// file only overrides what it names. ${VAR} references are expanded from
// the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "config file not found").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read config file").
			WithDetail("path", path)
	}
	return LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes parses config data. ext selects the format: ".toml" parses
// as TOML, anything else as YAML.
func LoadFromBytes(data []byte, ext string) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	var err error
	if strings.EqualFold(ext, ".toml") {
		err = toml.Unmarshal([]byte(expanded), cfg)
	} else {
		err = yaml.Unmarshal([]byte(expanded), cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to parse config file")
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadDefault loads the user's config file, or returns Default when none
// exists. QUICKSPELL_CONFIG overrides the search entirely.
func LoadDefault() (*Config, error) {
	if path := os.Getenv("QUICKSPELL_CONFIG"); path != "" {
		return Load(path)
	}

	dir := paths.ConfigDir()
	if dir == "" {
		return Default(), nil
	}
	for _, name := range candidateNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
