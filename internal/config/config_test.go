package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/cybersec-ai/internal/config"
	"github.com/0x6d61/cybersec-ai/internal/tools"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	t.Setenv(config.RootDirEnv, "")
	path := writeConfig(t, `root_dir: /srv/scans
wordlist: /usr/share/wordlists/dirb/big.txt
model:
  provider: openai
  name: llama3.2
  base_url: http://localhost:8080/v1
scan:
  parallel: true
  exit_policy: ignore
  on_missing_command: abort
tools:
  nmap:
    options: ["-sV", "-F"]
    timeout: 120
  nikto:
    options: -h
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/scans", cfg.RootDir)
	assert.Equal(t, "/usr/share/wordlists/dirb/big.txt", cfg.Wordlist)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "llama3.2", cfg.Model.Name)
	assert.True(t, cfg.Scan.Parallel)
	assert.Equal(t, "ignore", cfg.Scan.ExitPolicy)
	assert.Equal(t, config.MissingAbort, cfg.Scan.OnMissingCommand)
	assert.Equal(t, tools.StringList{"-sV", "-F"}, cfg.Tools["nmap"].Options)
	assert.Equal(t, 120, cfg.Tools["nmap"].TimeoutSec)
	assert.Equal(t, tools.StringList{"-h"}, cfg.Tools["nikto"].Options)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CONFIG_HOME", "/home/testuser")
	t.Setenv(config.RootDirEnv, "")
	path := writeConfig(t, `root_dir: "${TEST_CONFIG_HOME}/cybersec"
wordlist: "${TEST_CONFIG_HOME}/lists/common.txt"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/cybersec", cfg.RootDir)
	assert.Equal(t, "/home/testuser/lists/common.txt", cfg.Wordlist)
}

func TestLoad_RootDirEnvOverridesFile(t *testing.T) {
	t.Setenv(config.RootDirEnv, "/test/root/dir")
	path := writeConfig(t, "root_dir: /from/file\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/test/root/dir", cfg.RootDir)
}

func TestLoad_FileNotFound_Defaults(t *testing.T) {
	t.Setenv(config.RootDirEnv, "")
	t.Setenv("CYBERSEC_AI_PROVIDER", "")
	t.Setenv("CYBERSEC_AI_MODEL", "")

	cfg, err := config.Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ".", cfg.RootDir)
	assert.Equal(t, "tools", cfg.ToolsDir)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "strict", cfg.Scan.ExitPolicy)
	assert.Equal(t, config.MissingRecover, cfg.Scan.OnMissingCommand)
	assert.False(t, cfg.Scan.Parallel)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ProviderAndModelEnv(t *testing.T) {
	t.Setenv("CYBERSEC_AI_PROVIDER", "anthropic")
	t.Setenv("CYBERSEC_AI_MODEL", "claude-x")

	cfg, err := config.Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "claude-x", cfg.Model.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "scan: [unclosed\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidPolicies(t *testing.T) {
	_, err := config.Load(writeConfig(t, "scan:\n  exit_policy: sometimes\n"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "scan:\n  on_missing_command: retry\n"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CYBERSEC_AI_TEST_DOTENV=from-file\nCYBERSEC_AI_TEST_KEEP=from-file\n"), 0o600))

	t.Setenv("CYBERSEC_AI_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("CYBERSEC_AI_TEST_DOTENV") })

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CYBERSEC_AI_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("CYBERSEC_AI_TEST_KEEP"), "existing env must win")
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoad_ProviderEnvDropsModelOfOtherProvider(t *testing.T) {
	t.Setenv(config.RootDirEnv, "")
	t.Setenv("CYBERSEC_AI_PROVIDER", "anthropic")
	t.Setenv("CYBERSEC_AI_MODEL", "")
	path := writeConfig(t, "model:\n  provider: ollama\n  name: gemma:2b\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Empty(t, cfg.Model.Name, "gemma:2b must not be sent to anthropic")
}

func TestSetProvider(t *testing.T) {
	cfg := &config.AppConfig{Model: config.ModelConfig{Name: "gemma:2b"}}

	cfg.SetProvider("ollama")
	assert.Equal(t, "gemma:2b", cfg.Model.Name, "same provider keeps the model")

	cfg.SetProvider("OpenAI")
	assert.Equal(t, "OpenAI", cfg.Model.Provider)
	assert.Empty(t, cfg.Model.Name)
}
