package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime knob the service reads from the environment.
type Config struct {
	// Server
	Port string

	// MongoDB
	MongoURI string
	MongoDB  string

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Admin
	AdminPassword string
	JWTSecret     string

	// Sharing
	EnableUpload  bool
	FileSizeLimit int64 // bytes
	MaxDays       int
	CodeLength    int

	// Rate limiting
	ErrorCount   int
	ErrorWindow  time.Duration
	UploadCount  int
	UploadWindow time.Duration

	// Reaper
	ReaperInterval time.Duration
}

// Load reads configuration from environment variables with defaults suitable
// for local development.
func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "codedrop"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "codedrop-files"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		EnableUpload:   getEnvBool("ENABLE_UPLOAD", true),
		FileSizeLimit:  int64(getEnvInt("FILE_SIZE_LIMIT", 10*1024*1024)),
		MaxDays:        getEnvInt("MAX_DAYS", 7),
		CodeLength:     getEnvInt("CODE_LENGTH", 5),
		ErrorCount:     getEnvInt("ERROR_COUNT", 5),
		ErrorWindow:    time.Duration(getEnvInt("ERROR_MINUTE", 10)) * time.Minute,
		UploadCount:    getEnvInt("UPLOAD_COUNT", 10),
		UploadWindow:   time.Duration(getEnvInt("UPLOAD_MINUTE", 1)) * time.Minute,
		ReaperInterval: time.Duration(getEnvInt("REAPER_INTERVAL_SECONDS", 60)) * time.Second,
	}

	if cfg.AdminPassword == "" {
		log.Println("WARNING: ADMIN_PASSWORD not set - admin routes are disabled")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret(32)
		log.Println("WARNING: JWT_SECRET not set - generated a random secret, admin sessions will not survive a restart")
	}
	return cfg
}

func randomSecret(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate random secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("WARNING: invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
