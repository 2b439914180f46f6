package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("HOST", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("TOKEN_TTL_HOURS", "")

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.UsesMemoryBackend())
	assert.Empty(t, cfg.AllowedHost)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 24*365*time.Hour, cfg.TokenTTL)
}

func TestLoad_Production(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("HOST", "https://api.canteen.example:443/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://app.canteen.example, ")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("TOKEN_TTL_HOURS", "2")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.UsesMemoryBackend())
	assert.Equal(t, "api.canteen.example", cfg.AllowedHost)
	assert.Equal(t, []string{
		"https://app.canteen.example",
		"https://canteen.example",
		"https://www.canteen.example",
	}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
}

func TestLoad_AIKeyFallback(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("API_KEY", "legacy")
	t.Setenv("GEMINI_API_KEY", "g")

	cfg := Load()
	assert.Equal(t, ProviderDeepSeek, cfg.AIProvider)
	assert.Equal(t, "legacy", cfg.AIKey())

	cfg.AIProvider = ProviderGemini
	assert.Equal(t, "g", cfg.AIKey())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CANTEEN_SERVER_URL", "http://example.test/")
	t.Setenv("CANTEEN_DATA_DIR", "/tmp/canteen-test")
	t.Setenv("CANTEEN_HTTP_TIMEOUT", "nonsense")

	cfg := LoadClient()
	assert.Equal(t, "http://example.test", cfg.ServerURL)
	assert.Equal(t, "/tmp/canteen-test/canteen.db", cfg.DatabasePath())
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}
