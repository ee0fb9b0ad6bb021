package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ストアバックエンドの種別
const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// DefaultLocalStoreKey はローカルストアでTodo一覧を保持するキー。
const DefaultLocalStoreKey = "vibecoding-demo-todos"

// Config はAPIサーバーの設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend string
	DatabaseURL  string
	RedisURL     string

	// Token
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int

	// Rate Limit
	RateLimitAuth int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// LocalConfig はローカルCLIの設定を保持する。
type LocalConfig struct {
	StorePath string
	StoreKey  string
	LogLevel  string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既存の環境変数が優先される。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.StoreBackend = getEnvString("STORE_BACKEND", StoreBackendPostgres)
	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreBackendRedis:
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND: %q", cfg.StoreBackend)
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// LoadLocal はローカルCLI用の設定を読み込む。必須項目はない。
func LoadLocal() *LocalConfig {
	loadDotEnv()

	return &LocalConfig{
		StorePath: getEnvString("LOCAL_STORE_PATH", "todos.json"),
		StoreKey:  getEnvString("LOCAL_STORE_KEY", DefaultLocalStoreKey),
		LogLevel:  getEnvString("LOG_LEVEL", "info"),
	}
}

// loadDotEnv は.envファイルを読み込む。ファイルがなければ何もしない。
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
