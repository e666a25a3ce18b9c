package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/beach-tennis-system/storage"
)

type RatingConfig struct {
	KFactor        float64
	DefaultStart   int
	FormatModifier string
}

// Config holds every setting of the application.
type Config struct {
	DatabaseURL        string
	ServerPort         int
	LogLevel           slog.Level
	CORSAllowedOrigins []string
	RedisURL           string
	// SpecialParticipantID is the player always seeded last when the top seeds are unrated.
	SpecialParticipantID *int
	Rating               RatingConfig
	R2                   storage.CloudflareR2Config
}

// Load reads the configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	kFactor := 32.0
	if raw := os.Getenv("RATING_K_FACTOR"); raw != "" {
		kFactor, err = strconv.ParseFloat(raw, 64)
		if err != nil || kFactor <= 0 {
			return nil, fmt.Errorf("invalid RATING_K_FACTOR %q", raw)
		}
	}

	start, err := intEnv("RATING_DEFAULT_START", 1000)
	if err != nil {
		return nil, err
	}

	modifier := os.Getenv("RATING_FORMAT_MODIFIER")
	switch modifier {
	case "", "sets_and_margin", "margin":
	default:
		return nil, fmt.Errorf("RATING_FORMAT_MODIFIER must be sets_and_margin or margin, got %q", modifier)
	}

	var special *int
	if raw := os.Getenv("SPECIAL_PARTICIPANT_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SPECIAL_PARTICIPANT_ID: %w", err)
		}
		special = &id
	}

	cfg := &Config{
		DatabaseURL:          dbURL,
		ServerPort:           port,
		LogLevel:             level,
		CORSAllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RedisURL:             os.Getenv("REDIS_URL"),
		SpecialParticipantID: special,
		Rating: RatingConfig{
			KFactor:        kFactor,
			DefaultStart:   start,
			FormatModifier: modifier,
		},
		R2: storage.CloudflareR2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
