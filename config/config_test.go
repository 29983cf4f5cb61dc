package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDPILL_API_KEY", "sk-redpill")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "https://api.redpill.ai/v1", cfg.AI.BaseURL)
	assert.Equal(t, "phala/gpt-oss-20b", cfg.AI.Model)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.Equal(t, 10, cfg.AI.HistoryWindow)
	assert.Equal(t, "sk-redpill", cfg.AI.APIKey)
	assert.Equal(t, core.ChainCeloMainnet, cfg.Chain.ChainID)
	assert.Equal(t, []string{"https://forno.celo.org"}, cfg.Chain.RPCURLs)
	assert.Equal(t, "fixed", cfg.Conversion.Policy)
	assert.Equal(t, "0.50", cfg.Conversion.FallbackPrice)
	assert.Equal(t, 10*time.Minute, cfg.ConfirmationTTL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token2049.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  provider: anthropic
  model: claude-test
store:
  driver: postgres
  dsn: postgres://localhost/token2049
conversion:
  policy: live
  cache_ttl: 30s
contacts_file: contacts.yaml
`), 0o600))

	t.Setenv("TOKEN2049_SERVER_ADDR", ":9090")
	t.Setenv("TOKEN2049_RATE_LIMIT_PER_MINUTE", "3")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "claude-test", cfg.AI.Model)
	assert.Equal(t, "sk-ant", cfg.AI.APIKey)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/token2049", cfg.Store.DSN)
	assert.Equal(t, "live", cfg.Conversion.Policy)
	assert.Equal(t, 30*time.Second, cfg.Conversion.CacheTTL)
	assert.Equal(t, "contacts.yaml", cfg.ContactsFile)
	assert.Equal(t, 3, cfg.RateLimit.PerMinute)
}

func TestExplicitKeyWins(t *testing.T) {
	t.Setenv("REDPILL_API_KEY", "sk-fallback")
	t.Setenv("TOKEN2049_AI_API_KEY", "sk-explicit")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", cfg.AI.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"provider", map[string]string{"TOKEN2049_AI_PROVIDER": "gemini"}},
		{"driver", map[string]string{"TOKEN2049_STORE_DRIVER": "mongo"}},
		{"policy", map[string]string{"TOKEN2049_CONVERSION_POLICY": "oracle"}},
		{"embedder", map[string]string{"TOKEN2049_MEMORY_EMBEDDER": "onnx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrValidation))
		})
	}
}

func TestDriverNeedsDSN(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Store = StoreConfig{Driver: "mysql"}
	assert.True(t, errors.Is(cfg.Validate(), core.ErrValidation))

	cfg.Store = StoreConfig{Driver: "memory"}
	assert.NoError(t, cfg.Validate())
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
