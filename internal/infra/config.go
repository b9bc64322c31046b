package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	FrontendURL string

	ArtifactDir     string
	ArtifactBaseURL string

	MetadataProvider string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIImageModel string
	OpenAIBaseURL    string
	OpenAIOrg        string

	ReplicateAPIToken     string
	ReplicateModel        string
	ReplicateModelVersion string
	ReplicateBaseURL      string

	RunwayAPIKey  string
	RunwayModel   string
	RunwayBaseURL string

	DSPBaseURL string
	FFmpegPath string

	AIVideoMaxSeconds int

	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollTimeout     time.Duration

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	RunTimeout time.Duration

	GenerateRateLimit  int
	GenerateRateWindow time.Duration

	HTTPReadTimeout time.Duration
	HTTPIdleTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. There is no write-timeout knob: synchronous
// generation legitimately outlives any fixed response deadline, so the
// server pins it to zero.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		ArtifactDir:     getEnv("ARTIFACT_DIR", "artifacts"),
		ArtifactBaseURL: getEnv("ARTIFACT_BASE_URL", "http://localhost:8080/artifacts"),

		MetadataProvider: getEnv("METADATA_PROVIDER", "auto"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),

		ReplicateAPIToken:     os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateModel:        getEnv("REPLICATE_MODEL", "elevenlabs/music"),
		ReplicateModelVersion: os.Getenv("REPLICATE_MODEL_VERSION"),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),

		RunwayAPIKey:  os.Getenv("RUNWAY_API_KEY"),
		RunwayModel:   getEnv("RUNWAY_MODEL", "gen3-alpha"),
		RunwayBaseURL: getEnv("RUNWAY_API_BASE", "https://api.runwayml.com/v1"),

		DSPBaseURL: getEnv("DSP_BASE_URL", "http://localhost:8100"),
		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		AIVideoMaxSeconds: getEnvInt("AI_VIDEO_MAX_SECONDS", 10),

		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		PollMaxInterval: time.Second * time.Duration(getEnvInt("POLL_MAX_INTERVAL_SECONDS", 30)),
		PollTimeout:     time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 600)),

		MaxRetries:     getEnvInt("STAGE_MAX_RETRIES", 2),
		RetryBaseDelay: time.Millisecond * time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 500)),
		RetryMaxDelay:  time.Millisecond * time.Duration(getEnvInt("RETRY_MAX_DELAY_MS", 8000)),

		RunTimeout: time.Second * time.Duration(getEnvInt("RUN_TIMEOUT_SECONDS", 1800)),

		GenerateRateLimit:  getEnvInt("GENERATE_RATE_LIMIT", 10),
		GenerateRateWindow: time.Second * time.Duration(getEnvInt("GENERATE_RATE_WINDOW_SECONDS", 60)),

		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPIdleTimeout: time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
