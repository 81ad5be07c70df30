// Package config loads process configuration from the environment,
// with .env support for local runs.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable process configuration.
type Config struct {
	Env       string
	Providers ProviderConfig
	Store     StoreConfig
	Artifact  ArtifactConfig
}

// ProviderConfig configures the generation providers in priority
// order: Gemini, Groq, OpenAI, then the offline fake.
type ProviderConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
	OpenAIAPIKey string
	OpenAIModel  string
	Timeout      time.Duration
	RPS          float64
	Burst        int
	UseFake      bool
}

// StoreConfig selects and configures the analysis store backend.
type StoreConfig struct {
	Backend     string // "file" or "postgres"
	DataDir     string
	PostgresDSN string
	CacheSize   int
}

// ArtifactConfig configures the S3-compatible artifact store for
// generated test bundles.
type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads the environment, after merging a .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Env:       env,
		Providers: loadProviderConfig(),
		Store:     loadStoreConfig(),
		Artifact:  loadArtifactConfig(env),
	}, nil
}

func loadProviderConfig() ProviderConfig {
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	var rps float64
	if raw := strings.TrimSpace(os.Getenv("LLM_RPS")); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			rps = f
		}
	}
	var burst int
	if raw := strings.TrimSpace(os.Getenv("LLM_BURST")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			burst = n
		}
	}
	useFake := false
	if raw := strings.TrimSpace(os.Getenv("QAFORGE_FAKE_LLM")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			useFake = v
		}
	}
	return ProviderConfig{
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.0-flash"),
		GroqAPIKey:   strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("GROQ_MODEL")), "llama-3.3-70b-versatile"),
		OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("OPENAI_MODEL")), "gpt-4o-mini"),
		Timeout:      timeout,
		RPS:          rps,
		Burst:        burst,
		UseFake:      useFake,
	}
}

func loadStoreConfig() StoreConfig {
	cacheSize := 128
	if raw := strings.TrimSpace(os.Getenv("QAFORGE_CACHE_SIZE")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cacheSize = n
		}
	}
	backend := firstNonEmpty(strings.TrimSpace(os.Getenv("QAFORGE_STORE")), "file")
	return StoreConfig{
		Backend:     backend,
		DataDir:     firstNonEmpty(strings.TrimSpace(os.Getenv("QAFORGE_DATA_DIR")), ".qaforge"),
		PostgresDSN: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CacheSize:   cacheSize,
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   strings.EqualFold(env, "local") || endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "qaforge-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(env, "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
