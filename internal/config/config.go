package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDSN = "file:cymarker.db?_pragma=busy_timeout(5000)"
	defaultBaseURL     = "localhost:8081"
	defaultServiceName = "cymarker"
	defaultUploadDir   = "upload"
	defaultBlobMaxMB   = 10
	defaultS3Region    = "us-east-1"
)

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

type Config struct {
	// Server-side settings
	DatabaseDSN   string   `env:"DATABASE_URI"`
	ServiceName   string   `env:"SERVICE_NAME"` // issuer токенов
	Production    bool     `env:"PRODUCTION"`
	LogLevel      string   `env:"LOG_LEVEL"`
	TLSCertFile   string   `env:"TLS_CERT_FILE"`
	TLSKeyFile    string   `env:"TLS_KEY_FILE"`
	UploadDir     string   `env:"UPLOAD_DIR"`
	BlobMaxSizeMB int      `env:"BLOB_MAX_MB"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:","`

	// S3 включается, когда задан бакет
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

// S3Enabled сообщает, хранить ли блобы в S3 вместо диска.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// BlobMaxBytes — предел размера загружаемого файла.
func (c *Config) BlobMaxBytes() int64 {
	return int64(c.BlobMaxSizeMB) << 20
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или SQLite DSN)")
	flag.StringVar(&cfg.ServiceName, "service-name", cfg.ServiceName, "имя сервиса, issuer токенов")
	flag.BoolVar(&cfg.Production, "production", cfg.Production, "production-режим: JSON-логи, без деталей ошибок")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "уровень логирования (debug, info, warn, error)")
	flag.StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile, "путь к TLS-сертификату")
	flag.StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile, "путь к TLS-ключу")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "каталог для файлов изображений")
	flag.IntVar(&cfg.BlobMaxSizeMB, "blob-max-mb", cfg.BlobMaxSizeMB, "максимальный размер файла изображения, МБ")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3-бакет для файлов изображений")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3 base endpoint (MinIO)")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the CyMarker server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaultUploadDir
	}
	if cfg.BlobMaxSizeMB <= 0 {
		cfg.BlobMaxSizeMB = defaultBlobMaxMB
	}
	if cfg.S3Region == "" {
		cfg.S3Region = defaultS3Region
	}
	origins := cfg.CORSOrigins[:0]
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSOrigins = origins

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".cymarker_token")
	}
}
