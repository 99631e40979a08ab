package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	LogLevel  string

	// Outreach quotas and pacing.
	HourlySendLimit int
	DailySendLimit  int
	MinSendDelay    time.Duration
	MaxSendDelay    time.Duration
	ResumeInterval  time.Duration

	// Optional external event queue. Empty disables AMQP publishing.
	AMQPURL string

	// mock | tiktok
	SenderDriver    string
	BrowserHeadless bool
	// User whose portal session the tiktok driver runs under.
	PortalUserID uint64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		LogLevel:             getenv("LOG_LEVEL", "info"),

		HourlySendLimit: getenvInt("HOURLY_SEND_LIMIT", 15),
		DailySendLimit:  getenvInt("DAILY_SEND_LIMIT", 200),
		MinSendDelay:    getenvDuration("MIN_SEND_DELAY", 2*time.Minute),
		MaxSendDelay:    getenvDuration("MAX_SEND_DELAY", 10*time.Minute),
		ResumeInterval:  getenvDuration("RESUME_INTERVAL", time.Minute),

		AMQPURL:         getenv("AMQP_URL", ""),
		SenderDriver:    getenv("SENDER_DRIVER", "mock"),
		BrowserHeadless: getenv("BROWSER_HEADLESS", "true") == "true",
		PortalUserID:    uint64(getenvInt("PORTAL_USER_ID", 0)),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")
	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
