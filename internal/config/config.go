package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"

	AssetLocal = "local"
	AssetS3    = "s3"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Assets    AssetConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type StorageConfig struct {
	Driver        string // file or postgres
	DataDir       string
	MigrationsDir string
}

type AssetConfig struct {
	Driver        string // local or s3
	PublicDir     string
	MaxUploadSize int64 // in bytes
	S3            S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int // 0 disables rate limiting
	Window   time.Duration
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

// Load reads .env and the environment into a Config
func Load() *Config {
	// godotenv exports .env so that libraries reading the process
	// environment directly (the AWS SDK) see the same values.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env into environment: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("STORAGE_DRIVER", StorageFile)
	viper.SetDefault("DATA_DIR", "db")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("ASSET_DRIVER", AssetLocal)
	viper.SetDefault("PUBLIC_DIR", "public")
	viper.SetDefault("UPLOAD_MAX_SIZE", "10MB")
	viper.SetDefault("S3_REGION", "auto")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	maxUpload, err := humanize.ParseBytes(viper.GetString("UPLOAD_MAX_SIZE"))
	if err != nil {
		log.Printf("Warning: invalid UPLOAD_MAX_SIZE %q, using 10MB: %v", viper.GetString("UPLOAD_MAX_SIZE"), err)
		maxUpload = 10 * humanize.MByte
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			DataDir:       filepath.Clean(viper.GetString("DATA_DIR")),
			MigrationsDir: viper.GetString("MIGRATIONS_DIR"),
		},
		Assets: AssetConfig{
			Driver:        strings.ToLower(viper.GetString("ASSET_DRIVER")),
			PublicDir:     filepath.Clean(viper.GetString("PUBLIC_DIR")),
			MaxUploadSize: int64(maxUpload),
			S3: S3Config{
				Bucket:          viper.GetString("S3_BUCKET"),
				Region:          viper.GetString("S3_REGION"),
				Endpoint:        viper.GetString("S3_ENDPOINT"),
				AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
				SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
				PublicURL:       viper.GetString("S3_PUBLIC_URL"),
			},
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
