package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration values.
type Config struct {
	Port        string
	DatabaseURL string
	Session     SessionConfig
	Vision      VisionConfig
	Artifacts   ArtifactConfig
	Mail        MailConfig

	// ExportLikedOnly restricts download/email exports to liked renderings.
	ExportLikedOnly bool
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	Secret     string
	Duration   time.Duration
	CookieName string
	Secure     bool
	GuestLimit int
}

// VisionConfig selects and configures the image generation provider.
type VisionConfig struct {
	Provider string // "gemini" or "imagen"

	GeminiAPIKey string
	GeminiModel  string

	ImagenProject            string
	ImagenLocation           string
	ImagenModel              string
	ImagenAPIKey             string
	ImagenServiceAccount     string
	ImagenServiceAccountJSON string

	Timeout time.Duration
}

// ArtifactConfig selects disk or S3 artifact storage.
type ArtifactConfig struct {
	Dir            string
	Bucket         string
	Region         string
	Endpoint       string
	PublicURL      string
	KeyPrefix      string
	ForcePathStyle bool
}

// MailConfig describes the SendGrid sender.
type MailConfig struct {
	SendGridAPIKey string
	SenderName     string
	SenderAddress  string
}

// FromEnv loads configuration from environment variables and applies defaults.
func FromEnv() Config {
	cfg := Config{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			Duration:   getenvDuration("SESSION_DURATION", 7*24*time.Hour),
			CookieName: getenv("SESSION_COOKIE_NAME", "session_token"),
			Secure:     getenvBool("SESSION_SECURE", false),
			GuestLimit: getenvInt("GUEST_SCOPE_LIMIT", 48),
		},
		Vision: VisionConfig{
			Provider:                 strings.ToLower(getenv("VISION_PROVIDER", "gemini")),
			GeminiAPIKey:             os.Getenv("GEMINI_API_KEY"),
			GeminiModel:              os.Getenv("GEMINI_IMAGE_MODEL"),
			ImagenProject:            os.Getenv("IMAGEN_PROJECT_ID"),
			ImagenLocation:           getenv("IMAGEN_LOCATION", "us-central1"),
			ImagenModel:              os.Getenv("IMAGEN_MODEL"),
			ImagenAPIKey:             os.Getenv("IMAGEN_API_KEY"),
			ImagenServiceAccount:     os.Getenv("IMAGEN_SERVICE_ACCOUNT_FILE"),
			ImagenServiceAccountJSON: os.Getenv("IMAGEN_SERVICE_ACCOUNT_JSON"),
			Timeout:                  getenvDuration("VISION_TIMEOUT", 90*time.Second),
		},
		Artifacts: ArtifactConfig{
			Dir:            getenv("ARTIFACT_DIR", "data"),
			Bucket:         os.Getenv("S3_BUCKET"),
			Region:         os.Getenv("S3_REGION"),
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicURL:      os.Getenv("S3_PUBLIC_URL"),
			KeyPrefix:      strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			ForcePathStyle: getenvBool("S3_FORCE_PATH_STYLE", false),
		},
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			SenderName:     getenv("MAIL_SENDER_NAME", "Architect 3D"),
			SenderAddress:  os.Getenv("MAIL_SENDER_ADDRESS"),
		},
		ExportLikedOnly: getenvBool("EXPORT_LIKED_ONLY", true),
	}

	if cfg.Port == "" {
		log.Fatal("APP_PORT cannot be empty")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}

	return parsed
}
