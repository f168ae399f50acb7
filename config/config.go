package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values, grouped the same way as config/config.json.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	App      AppSection      `json:"app" yaml:"app"`
	Database DatabaseSection `json:"database" yaml:"database"`
	Redis    RedisSection    `json:"redis" yaml:"redis"`
	Log      LogSection      `json:"log" yaml:"log"`
	Gin      GinSection      `json:"gin" yaml:"gin"`
	Upload   UploadSection   `json:"upload" yaml:"upload"`
	MinIO    MinIOSection    `json:"minio" yaml:"minio"`
	Admin    AdminSection    `json:"admin" yaml:"admin"`
}

type AppSection struct {
	AppPort            string   `env:"APP_PORT" env-default:"8080"`
	JWTSecret          string   `env:"JWT_SECRET"`
	JWTExpirationHours int      `env:"JWT_EXPIRATION_HOURS" env-default:"24"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" env-default:"60"`
	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	ShutdownTimeoutSec int      `env:"SHUTDOWN_TIMEOUT_SEC" env-default:"30"`
	// Default categories are created on an empty database unless disabled.
	SkipCategorySeed bool `env:"SKIP_CATEGORY_SEED"`
}

type DatabaseSection struct {
	// Driver is one of mysql, postgres, sqlite.
	Driver      string `env:"DB_DRIVER" env-default:"mysql"`
	DatabaseURI string `env:"DATABASE_URI"`
	DBHost      string `env:"DB_HOST" env-default:"127.0.0.1"`
	DBPort      string `env:"DB_PORT" env-default:"3306"`
	DBUser      string `env:"DB_USER" env-default:"root"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" env-default:"board"`
	SQLitePath  string `env:"SQLITE_PATH" env-default:"data/board.db"`
}

// RedisSection configures the optional cache. An empty host disables Redis and
// in-memory fallbacks are used instead.
type RedisSection struct {
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

type LogSection struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`
	Path       string `env:"LOG_PATH"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" env-default:"7"`
	Compress   bool   `env:"LOG_COMPRESS"`
}

type GinSection struct {
	Mode    string `env:"GIN_MODE" env-default:"release"`
	LogPath string `env:"GIN_PATH" env-default:"logs/go_gin.log"`
}

type UploadSection struct {
	// Driver is local or minio.
	Driver    string `env:"STORAGE_DRIVER" env-default:"local"`
	Dir       string `env:"UPLOAD_DIR" env-default:"uploads"`
	MaxSizeMB int    `env:"UPLOAD_MAX_SIZE_MB" env-default:"10"`
}

type MinIOSection struct {
	Endpoint  string `env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" env-default:"board"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
	// PublicURL prefixes object keys in returned image URLs, e.g. http://cdn.example.com
	PublicURL string `env:"MINIO_PUBLIC_URL"`
}

type AdminSection struct {
	// LoginIDs are promoted to the admin role at startup.
	LoginIDs []string `env:"ADMIN_LOGIN_IDS" env-separator:","`
}

// Load builds the configuration.
// Precedence: config file (JSON or YAML by extension) -> defaults -> environment variable overrides.
// A .env file in the working directory is loaded first when present; it never overrides real environment variables.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig

	_ = godotenv.Load()

	readFile := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			readFile = true
		}
	}

	if readFile {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	cfg.App.AllowedOrigins = splitAndTrim(cfg.App.AllowedOrigins)
	cfg.Admin.LoginIDs = splitAndTrim(cfg.Admin.LoginIDs)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Upload.Driver = strings.ToLower(strings.TrimSpace(cfg.Upload.Driver))

	if cfg.App.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set in config or environment")
	}
	return cfg, nil
}

// IsAdminLoginID reports whether loginID is configured as a bootstrap admin (case-insensitive).
func (c AppConfig) IsAdminLoginID(loginID string) bool {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		return false
	}
	for _, id := range c.Admin.LoginIDs {
		if strings.EqualFold(id, loginID) {
			return true
		}
	}
	return false
}

func splitAndTrim(list []string) []string {
	items := []string{}
	for _, item := range list {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
