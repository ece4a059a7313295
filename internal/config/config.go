package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawHTMLDir string
	ArchiveDir string
	OutputDir  string
	VocabPath  string

	FetchRateLimitRPS int
	FetchTimeoutMs    int
	FetchDelayMs      int
	FetchAuthCookie   string
	FetchUserAgent    string
	FetchMaxRetries   int

	ArchiveKeepLatest int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawHTMLDir: getEnv("RAW_HTML_DIR", filepath.Join(cwd, "data", "raw", "html")),
		ArchiveDir: getEnv("HTML_ARCHIVE_DIR", filepath.Join(cwd, "data", "raw", "html_archive")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		VocabPath:  getEnv("VOCAB_PATH", ""),

		FetchRateLimitRPS: getEnvInt("FETCH_RATE_LIMIT_RPS", 2),
		FetchTimeoutMs:    getEnvInt("FETCH_TIMEOUT_MS", 30000),
		FetchDelayMs:      getEnvInt("FETCH_DELAY_MS", 0),
		FetchAuthCookie:   getEnv("FETCH_AUTH_COOKIE", ""),
		FetchUserAgent:    getEnv("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; syllabook/1.0)"),
		FetchMaxRetries:   getEnvInt("FETCH_MAX_RETRIES", 5),

		ArchiveKeepLatest: getEnvInt("ARCHIVE_KEEP_LATEST", 0),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
