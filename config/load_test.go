package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quickspell.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
spells_dir: /opt/spells
top_n: 7
watch:
  enabled: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/spells", cfg.SpellsDir)
	assert.Equal(t, 7, cfg.TopN)
	assert.False(t, cfg.Watch.Enabled)
	// Untouched fields keep their defaults.
	assert.Equal(t, "main", cfg.RootSpell)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quickspell.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
root_spell = "launcher"

[server]
socket = "/tmp/qs.sock"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "launcher", cfg.RootSpell)
	assert.Equal(t, "/tmp/qs.sock", cfg.Server.Socket)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("QS_TEST_SPELLS", "/env/spells")
	dir := t.TempDir()
	path := filepath.Join(dir, "quickspell.yml")
	require.NoError(t, os.WriteFile(path, []byte("spells_dir: ${QS_TEST_SPELLS}\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/spells", cfg.SpellsDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	t.Setenv("QUICKSPELL_HOME", t.TempDir())
	t.Setenv("QUICKSPELL_CONFIG", "")

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.RootSpell)
	assert.NotEmpty(t, cfg.SpellsDir)
}

func TestLoadDefaultHonorsConfigEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 3\n"), 0644))
	t.Setenv("QUICKSPELL_CONFIG", path)

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TopN)
}

func TestInvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("top_n: [broken"), ".yml")
	require.Error(t, err)
}
