package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	OCRProviderHTTP      = "http"
	OCRProviderTesseract = "tesseract"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	OCR    OCRConfig
	Auth   AuthConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port          string
	Mode          string
	FrontendURL   string
	StaticDir     string
	UploadDir     string
	MaxUploadMB   int64
	TutorialVideo string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type OCRConfig struct {
	Provider    string
	URL         string
	ContentType string
	APIKey      string
	APIHost     string
	Timeout     time.Duration
	Language    string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads .env (when present), an optional config file and the process
// environment. The returned Config is not modified afterwards.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("SERVER_PORT"),
			Mode:          v.GetString("GIN_MODE"),
			FrontendURL:   v.GetString("FRONTEND_URL"),
			StaticDir:     v.GetString("STATIC_DIR"),
			UploadDir:     v.GetString("UPLOAD_DIR"),
			MaxUploadMB:   v.GetInt64("MAX_UPLOAD_MB"),
			TutorialVideo: v.GetString("TUTORIAL_VIDEO"),
		},
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		OCR: OCRConfig{
			Provider:    strings.ToLower(v.GetString("OCR_PROVIDER")),
			URL:         v.GetString("OCR_API_URL"),
			ContentType: v.GetString("API_CONTENT_TYPE"),
			APIKey:      v.GetString("API_KEY"),
			APIHost:     v.GetString("API_HOST"),
			Timeout:     v.GetDuration("OCR_TIMEOUT"),
			Language:    v.GetString("OCR_LANGUAGE"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			TokenTTL:   v.GetDuration("JWT_TTL"),
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unknown GIN_MODE %q (want debug, release or test)", c.Server.Mode)
	}
	switch c.OCR.Provider {
	case OCRProviderHTTP:
		if c.OCR.URL == "" {
			return errors.New("OCR_API_URL is required for the http OCR provider")
		}
	case OCRProviderTesseract:
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCR.Provider)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("FRONTEND_URL", "")
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("TUTORIAL_VIDEO", "videos/tutorial.mp4")

	v.SetDefault("DB_DSN", "host=localhost user=postgres password=postgres dbname=plates port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("OCR_PROVIDER", OCRProviderHTTP)
	v.SetDefault("OCR_API_URL", "")
	v.SetDefault("API_CONTENT_TYPE", "application/json")
	v.SetDefault("API_KEY", "")
	v.SetDefault("API_HOST", "")
	v.SetDefault("OCR_TIMEOUT", time.Duration(0))
	v.SetDefault("OCR_LANGUAGE", "por")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", time.Hour)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
}
