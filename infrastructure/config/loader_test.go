package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/company-url-collector/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Name    string        `env:"SAMPLE_NAME"    yaml:"name"`
	Port    int           `env:"SAMPLE_PORT"    yaml:"port"`
	Timeout time.Duration `env:"SAMPLE_TIMEOUT" yaml:"timeout"`
	Nested  struct {
		Enabled bool     `env:"SAMPLE_ENABLED" yaml:"enabled"`
		Origins []string `env:"SAMPLE_ORIGINS" yaml:"origins"`
	} `yaml:"nested"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLWithEnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SAMPLE_PORT", "9090")
	t.Setenv("SAMPLE_TIMEOUT", "5s")
	t.Setenv("SAMPLE_ENABLED", "yes")
	t.Setenv("SAMPLE_ORIGINS", "a.com, b.com")

	path := writeFile(t, "name: collector\nport: 8080\nnested:\n  enabled: false\n")

	cfg, err := config.Load[sampleConfig](path)
	require.NoError(t, err)

	assert.Equal(t, "collector", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Nested.Enabled)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.Nested.Origins)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := config.Load[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)

	cfg, err := config.LoadOptional[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := config.Load[sampleConfig](writeFile(t, "name: [unterminated"))
	require.Error(t, err)
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SAMPLE_NAME", "from-env")

	cfg, err := config.LoadWithDefaults[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"), func(c *sampleConfig) {
		c.Name = "default"
		c.Port = 8080
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("SAMPLE_NAME_FROM_FILE=dotenv\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { _ = os.Unsetenv("SAMPLE_NAME_FROM_FILE") })

	_, err := config.LoadOptional[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "dotenv", os.Getenv("SAMPLE_NAME_FROM_FILE"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidatePort("server.port", 8080))
	require.Error(t, config.ValidatePort("server.port", 0))
	require.NoError(t, config.ValidateURL("search.base_url", "https://api.perplexity.ai"))
	require.Error(t, config.ValidateURL("search.base_url", "api.perplexity.ai"))
	require.NoError(t, config.ValidateOneOf("mode", "fixed", "fixed", "publicsuffix"))
	require.Error(t, config.ValidateOneOf("mode", "other", "fixed", "publicsuffix"))
	require.Error(t, config.ValidateRequired("company", ""))
	require.Error(t, config.ValidateLogLevel("verbose"))
}
