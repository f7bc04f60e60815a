package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type SocialConfig struct {
	HTTPPort                string
	StorageDriver           string
	DatabaseURL             string
	JWTSecret               string
	RequestTimeout          time.Duration
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	MaxRefreshTokensPerUser int
	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
	StreamLimit             int
	Admin                   AdminSeed
}

// AdminSeed describes the account created on startup when Username is set.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

func (a AdminSeed) Enabled() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

// LoadSocialConfig reads the environment, after merging an optional .env file
// from the working directory.
func LoadSocialConfig() (SocialConfig, error) {
	_ = godotenv.Load()

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return SocialConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return SocialConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return SocialConfig{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	var databaseURL string
	if driver == StorageDriverPostgres {
		databaseURL, err = mustEnv("DATABASE_URL")
		if err != nil {
			return SocialConfig{}, err
		}
	}

	streamLimit := getIntEnv("SOCIAL_STREAM_LIMIT", constants.StreamDisplayLimit)
	if streamLimit <= 0 || streamLimit > constants.StreamDisplayLimit {
		streamLimit = constants.StreamDisplayLimit
	}

	return SocialConfig{
		HTTPPort:                getEnv("SOCIAL_HTTP_PORT", constants.DefaultSocialHTTPPort),
		StorageDriver:           driver,
		DatabaseURL:             databaseURL,
		JWTSecret:               jwtSecret,
		RequestTimeout:          getDurationEnv("SOCIAL_REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		AccessTokenTTL:          getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:         getDurationEnv("REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		MaxRefreshTokensPerUser: getIntEnv("MAX_REFRESH_TOKENS_PER_USER", constants.DefaultMaxRefreshTokensPerUser),
		CircuitBreakerThreshold: int32(getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
		StreamLimit:             streamLimit,
		Admin: AdminSeed{
			Username: os.Getenv("ADMIN_USERNAME"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
