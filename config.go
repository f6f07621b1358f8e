package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// config is the process configuration, read from the environment
// (godotenv loads a local .env first).
type config struct {
	Port      string
	DBPath    string
	WordsFile string // optional newline-delimited word list
	WordsAPI  string // optional word API base URL
	RedisAddr string // optional; rate limiter runs in-process when empty
	LogLevel  string

	BotAdmins  []int64 // players allowed to view /stats
	RateWindow time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt hash; dashboard login is disabled when empty
	JWTSecret     string
}

func loadConfig() config {
	return config{
		Port:          envStr("PORT", "8080"),
		DBPath:        envStr("DB_PATH", "./data/wordseek.db"),
		WordsFile:     os.Getenv("WORDS_FILE"),
		WordsAPI:      os.Getenv("WORDS_API"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		BotAdmins:     envIDs("BOT_ADMINS"),
		RateWindow:    time.Duration(envInt("RATE_WINDOW_MS", 2000)) * time.Millisecond,
		AdminUser:     envStr("ADMIN_USER", "admin"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),
		JWTSecret:     envStr("JWT_SECRET", "dev_secret_change_me"),
	}
}

func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// envIDs parses a comma-separated list of numeric IDs.
func envIDs(k string) []int64 {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.ParseInt(part, 10, 64); err == nil && n != 0 {
			out = append(out, n)
		}
	}
	return out
}
