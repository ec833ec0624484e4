package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GeminiAPIKey  string
	TelegramToken string

	LogLevel string
	Debug    bool

	WebAddr string

	PreferIPv4  bool
	HTTPTimeout time.Duration

	GeminiBaseURL    string
	GeminiAPIVersion string
	TextModel        string
	ImageModel       string

	MaxUploadBytes int64
	SessionTTL     time.Duration

	MediaGroupDebounce time.Duration
	MaxConcurrent      int
}

// Load reads the environment. A missing GEMINI_API_KEY is a fatal
// configuration error; callers report it once and exit.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:              getEnvBool("DEBUG", false),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion:   getEnv("GEMINI_API_VERSION", "v1beta"),
		TextModel:          getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:         getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}

	return cfg, nil
}

// RequireTelegram is checked by the bot only; the web server runs without
// a token.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
