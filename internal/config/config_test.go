package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.FastModel)
	assert.Equal(t, 3, cfg.Reasoning.DefaultSamples)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[llm]
provider = "claude"
fast_model = "claude-3-5-haiku-latest"

[reasoning]
default_samples = 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.FastModel)
	assert.Equal(t, 5, cfg.Reasoning.DefaultSamples)
	// Untouched sections keep their defaults.
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm\nprovider="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("FAST_MODEL", "llama3")
	t.Setenv("PORT", "9999")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.FastModel)
	assert.Equal(t, "9999", cfg.Server.Port)
	// Unset variables leave values alone.
	assert.Equal(t, "gpt-4o", cfg.LLM.SlowModel)
}

func TestResolveModel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.LLM.FastModel, cfg.ResolveModel("fast"))
	assert.Equal(t, cfg.LLM.SlowModel, cfg.ResolveModel("slow"))
	assert.Equal(t, cfg.LLM.SlowModel, cfg.ResolveModel("SLOW"))
	assert.Equal(t, cfg.LLM.FastModel, cfg.ResolveModel(""))
}

func TestValidate_RequiresKeyExceptOllama(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg.LLM.Provider = "ollama"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())
}
