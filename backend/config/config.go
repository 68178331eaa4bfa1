package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinEncryptionKeyLength is the shortest WK_TOKEN_ENCRYPTION_KEY accepted
// before it is hashed into an AES-256 key.
const MinEncryptionKeyLength = 32

var ErrWeakEncryptionKey = fmt.Errorf("WK_TOKEN_ENCRYPTION_KEY must be at least %d characters", MinEncryptionKeyLength)

type Config struct {
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	JWTSecret   string
	ServerPort  string
	CORSOrigins string
	LogFormat   string

	AzureSpeechKey      string
	AzureSpeechRegion   string
	GoogleSpeechEnabled bool
	GoogleCredentials   string
	WhisperServerURL    string
	FFmpegPath          string
	ProviderTimeout     time.Duration
	MaxAudioBytes       int

	WKTokenEncryptionKey string
	WaniKaniBaseURL      string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "kotoba"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		AzureSpeechKey:      getEnv("AZURE_SPEECH_KEY", ""),
		AzureSpeechRegion:   getEnv("AZURE_SPEECH_REGION", ""),
		GoogleSpeechEnabled: getEnvBool("GOOGLE_SPEECH_ENABLED", false),
		GoogleCredentials:   getEnv("GOOGLE_SPEECH_CREDENTIALS", ""),
		WhisperServerURL:    getEnv("WHISPER_SERVER_URL", "http://127.0.0.1:8787/inference"),
		FFmpegPath:          getEnv("FFMPEG_PATH", "ffmpeg"),
		ProviderTimeout:     getEnvDuration("TRANSCRIBE_TIMEOUT", 30*time.Second),
		MaxAudioBytes:       getEnvInt("MAX_AUDIO_BYTES", 10<<20),

		WKTokenEncryptionKey: getEnv("WK_TOKEN_ENCRYPTION_KEY", ""),
		WaniKaniBaseURL:      getEnv("WANIKANI_BASE_URL", "https://api.wanikani.com/v2"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	if len(c.WKTokenEncryptionKey) < MinEncryptionKeyLength {
		return ErrWeakEncryptionKey
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.MaxAudioBytes <= 0 {
		return errors.New("MAX_AUDIO_BYTES must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a postgres DSN assembled from
// the DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "sqlite" {
		return c.DBName + ".db"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(getEnv(key, "")))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
