package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// BoardConfig describes one board provisioned at startup. Boards are static:
// they are seeded once and never deleted at runtime.
type BoardConfig struct {
	Path        string
	Name        string
	Description string
	ThreadLimit int
	ImageLimit  int
	BumpLimit   int
}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	ServerPort string
	Env        string

	RedisURL string
	RedisTTL time.Duration

	MigrationDir string

	StorageBackend string // "disk" or "minio"
	ImageDir       string
	MinioURL       string
	MinioPublicURL string
	MinioUser      string
	MinioPassword  string
	MinioBucket    string

	MaxFileSize int64
	PurgeDelay  time.Duration

	CookieName   string
	CookieMaxAge int
	TripSecret   string

	Boards []BoardConfig
}

func LoadConfig() Config {
	ttlStr := getEnv("REDIS_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 5 * time.Minute
	}

	purgeStr := getEnv("PURGE_DELAY", "30s")
	purgeDelay, err := time.ParseDuration(purgeStr)
	if err != nil {
		purgeDelay = 30 * time.Second
	}

	// 5 MiB canonical upload ceiling. The size check is strict: a file of
	// exactly MaxFileSize bytes is rejected.
	maxFileSize := getEnvAsInt64("MAX_FILE_SIZE", 5*1024*1024)

	return Config{
		DBHost:     getEnv("DB_HOST", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPass:     getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "db_onchan"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Env:        getEnv("ENV", "dev"),

		RedisURL: getEnv("REDIS_URL", "redis:6379"),
		RedisTTL: ttl,

		MigrationDir: getEnv("MIGRATION_DIR", "./sql/migration"),

		StorageBackend: getEnv("STORAGE_BACKEND", "disk"),
		ImageDir:       getEnv("IMAGE_DIR", "./public/img"),
		MinioURL:       getEnv("MINIO_URL", "localhost:9000"),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		MinioUser:      getEnv("MINIO_USER", "minioadmin"),
		MinioPassword:  getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "onchan-images"),

		MaxFileSize: maxFileSize,
		PurgeDelay:  purgeDelay,

		CookieName:   getEnv("COOKIE_NAME", "onchan_pass"),
		CookieMaxAge: getEnvAsInt("COOKIE_MAX_AGE", 3600*24*30),
		TripSecret:   getEnv("TRIP_SECRET", "change-me-before-deploy"),

		Boards: defaultBoards(),
	}
}

func defaultBoards() []BoardConfig {
	return []BoardConfig{
		{Path: "/b/", Name: "Random", Description: "Don't do it.", ThreadLimit: 100, ImageLimit: 50, BumpLimit: 100},
		{Path: "/g/", Name: "Technology", Description: "Your choice of Emacs has me quite discheesed.", ThreadLimit: 100, ImageLimit: 50, BumpLimit: 100},
		{Path: "/sci/", Name: "Science & Math", Description: "Most research is tripe, this board is no different.", ThreadLimit: 100, ImageLimit: 50, BumpLimit: 100},
		{Path: "/t/", Name: "Torrents", Description: "You wouldn't download a car, would you anon?", ThreadLimit: 100, ImageLimit: 50, BumpLimit: 100},
		{Path: "/x/", Name: "Paranormal", Description: "Meds, anon.", ThreadLimit: 100, ImageLimit: 50, BumpLimit: 100},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
