package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	MFA      MFAConfig
	Email    EmailConfig
	OAuth    OAuthConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	FrontendURL  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	// SessionExpiry is the standard session token lifetime;
	// MFASessionExpiry applies to sessions minted after a successful
	// MFA verification; AdminExpiry to the bootstrap admin token.
	SessionExpiry    time.Duration
	MFASessionExpiry time.Duration
	AdminExpiry      time.Duration
}

type AuthConfig struct {
	MaxFailedLogins int
	LockDuration    time.Duration
	AdminEmail      string
	AdminPassword   string
}

type MFAConfig struct {
	// LoginCodeTTL is the validity window for codes issued during
	// login (local and OAuth); ManageCodeTTL for codes protecting
	// setup/enable/disable/delete and for resends.
	LoginCodeTTL    time.Duration
	ManageCodeTTL   time.Duration
	MaxCodeAttempts int
}

type EmailConfig struct {
	Enabled   bool
	APIKey    string
	FromEmail string
	FromName  string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "3001"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "auth"),
			Password: getEnv("DB_PASSWORD", "auth"),
			DBName:   getEnv("DB_NAME", "authdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", ""),
			Issuer:           getEnv("JWT_ISSUER", "role-based-auth"),
			SessionExpiry:    getDurationEnv("JWT_SESSION_EXPIRY", 24*time.Hour),
			MFASessionExpiry: getDurationEnv("JWT_MFA_SESSION_EXPIRY", 7*24*time.Hour),
			AdminExpiry:      getDurationEnv("JWT_ADMIN_EXPIRY", 15*time.Minute),
		},
		Auth: AuthConfig{
			MaxFailedLogins: getIntEnv("AUTH_MAX_FAILED_LOGINS", 5),
			LockDuration:    getDurationEnv("AUTH_LOCK_DURATION", 30*time.Minute),
			AdminEmail:      getEnv("ADMIN_EMAIL", ""),
			AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		},
		MFA: MFAConfig{
			LoginCodeTTL:    getDurationEnv("MFA_LOGIN_CODE_TTL", 5*time.Minute),
			ManageCodeTTL:   getDurationEnv("MFA_MANAGE_CODE_TTL", 15*time.Minute),
			MaxCodeAttempts: getIntEnv("MFA_MAX_CODE_ATTEMPTS", 5),
		},
		Email: EmailConfig{
			Enabled:   getBoolEnv("EMAIL_ENABLED", false),
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("SENDER_EMAIL", ""),
			FromName:  getEnv("SENDER_NAME", "Login System"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:        getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3001/api/v1/auth/google/callback"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
