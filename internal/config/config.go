package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendDatabases = "databases"
	BackendMemory    = "memory"

	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

type Config struct {
	MongoURI            string
	MongoDatabase       string
	PostgresURI         string
	RedisURI            string
	JWTSecret           string
	TokenTTL            time.Duration
	Port                string
	FrontendURL         string
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s); must include the PWA origin
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	Host                string // Raw HOST env (e.g. https://api.canteen.example)
	AllowedHost         string // Hostname only for strict host check (production only)
	Environment         string // ENV: production, development, etc.
	StorageBackend      string // STORAGE_BACKEND: databases (default) or memory
	AIProvider          string // AI_PROVIDER: deepseek (default) or gemini
	DeepSeekAPIKey      string
	GeminiAPIKey        string
	GeminiModel         string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:5173"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	// When HOST is an api subdomain (e.g. api.canteen.example), also allow the apex and www
	// origins so the PWA served from the main domain passes preflight.
	if h := hostname(host); h != "" && h != "localhost" {
		parts := strings.Split(h, ".")
		if len(parts) >= 3 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(allowedOrigins, origin) {
					allowedOrigins = append(allowedOrigins, origin)
				}
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendDatabases)))
	provider := strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", ProviderDeepSeek)))

	return &Config{
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/canteen")),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "canteen"),
		PostgresURI:         getEnv("POSTGRES_URI", "postgres://localhost:5432/canteen?sslmode=disable"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		TokenTTL:            time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24*365)) * time.Hour,
		Host:                host,
		AllowedHost:         allowedHost,
		Environment:         env,
		Port:                getEnv("PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins:      allowedOrigins,
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		StorageBackend:      backend,
		AIProvider:          provider,
		DeepSeekAPIKey:      getEnv("DEEPSEEK_API_KEY", getEnv("API_KEY", "")),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}
}

// ClientConfig configures the kitchen client and the canteen CLI.
type ClientConfig struct {
	ServerURL   string
	DataDir     string
	HTTPTimeout time.Duration
	Environment string
}

func LoadClient() *ClientConfig {
	dataDir := getEnv("CANTEEN_DATA_DIR", "")
	if dataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			dataDir = filepath.Join(dir, "canteen")
		} else {
			dataDir = ".canteen"
		}
	}

	timeout, err := time.ParseDuration(getEnv("CANTEEN_HTTP_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ClientConfig{
		ServerURL:   strings.TrimRight(getEnv("CANTEEN_SERVER_URL", "http://localhost:8080"), "/"),
		DataDir:     dataDir,
		HTTPTimeout: timeout,
		Environment: strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
	}
}

// DatabasePath is the SQLite file holding the local buckets.
func (c *ClientConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "canteen.db")
}

func hostname(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// UsesMemoryBackend reports whether households and buckets live in process memory.
func (c *Config) UsesMemoryBackend() bool {
	return c.StorageBackend == BackendMemory
}

// AIKey returns the credential for the configured draft provider.
func (c *Config) AIKey() string {
	if c.AIProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.DeepSeekAPIKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
