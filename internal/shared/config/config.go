package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Env             string   `yaml:"env"`
	Port            string   `yaml:"port"`
	CORSAllowOrigin []string `yaml:"corsAllowOrigins"`
	LogLevel        string   `yaml:"logLevel"`

	LLMProvider     string        `yaml:"llmProvider"`
	LLMModel        string        `yaml:"llmModel"`
	GeminiAPIKey    string        `yaml:"-"`
	OpenAIAPIKey    string        `yaml:"-"`
	AnalyzerTimeout time.Duration `yaml:"analyzerTimeout"`
	SearchGrounding bool          `yaml:"searchGrounding"`

	ObjectStoreType string `yaml:"objectStore"`
	LocalStoreDir   string `yaml:"localStoreDir"`
	AWSRegion       string `yaml:"awsRegion"`
	S3Bucket        string `yaml:"s3Bucket"`
	S3Prefix        string `yaml:"s3Prefix"`
	SSEKMSKeyID     string `yaml:"sseKmsKeyId"`

	SubmitRatePerMinute float64 `yaml:"submitRatePerMinute"`
	SubmitBurst         int     `yaml:"submitBurst"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Env:                 "dev",
		Port:                "8080",
		CORSAllowOrigin:     []string{"http://localhost:5173"},
		LogLevel:            "info",
		LLMProvider:         "gemini",
		LLMModel:            "",
		SearchGrounding:     true,
		ObjectStoreType:     "local",
		LocalStoreDir:       "./data",
		SubmitRatePerMinute: 6,
		SubmitBurst:         3,
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over the file; the file wins over defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			warn("config file ignored", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	cfg.Port = getEnv("PORT", cfg.Port)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.LLMProvider = normalizeProvider(getEnv("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if raw := strings.TrimSpace(os.Getenv("ANALYZER_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			cfg.AnalyzerTimeout = time.Duration(parsed) * time.Second
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SEARCH_GROUNDING")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.SearchGrounding = parsed
		}
	}

	cfg.ObjectStoreType = normalizeStoreType(getEnv("OBJECT_STORE", cfg.ObjectStoreType))
	cfg.LocalStoreDir = getEnv("LOCAL_STORE_DIR", cfg.LocalStoreDir)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("S3_PREFIX", cfg.S3Prefix)
	cfg.SSEKMSKeyID = getEnv("SSE_KMS_KEY_ID", cfg.SSEKMSKeyID)

	if raw := strings.TrimSpace(os.Getenv("SUBMIT_RATE_PER_MINUTE")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 {
			cfg.SubmitRatePerMinute = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SUBMIT_BURST")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			cfg.SubmitBurst = parsed
		}
	}
}

// IsDevLike reports whether the environment is a local development one.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "placeholder":
		return "none"
	default:
		return "gemini"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
