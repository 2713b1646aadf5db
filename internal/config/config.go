package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	APIBaseURL string
	CORSOrigin string

	// Identity
	AdminID     string
	DebugUserID string

	// Request pipeline
	RequestTimeout  time.Duration
	ListMaxAttempts int
	RetryDelay      time.Duration

	// Viewer timings. Named here rather than inlined in the state machine so
	// tests can run with near-zero durations.
	ViewerLoadDelay       time.Duration
	ViewerCloseDelay      time.Duration
	ViewerFallbackTimeout time.Duration

	ToastDuration time.Duration

	// Headless embed surface
	ChromeEnabled bool
}

func Load() Config {
	return Config{
		Addr:       getenv("FORMDESK_ADDR", ":8686"),
		APIBaseURL: getenv("FORMDESK_API_URL", ""),
		CORSOrigin: getenv("FORMDESK_CORS_ORIGIN", "*"),

		AdminID:     getenv("FORMDESK_ADMIN_ID", "226674400"),
		DebugUserID: getenv("FORMDESK_DEBUG_USER_ID", ""),

		RequestTimeout:  time.Duration(getenvInt("FORMDESK_REQUEST_TIMEOUT_MS", 10000)) * time.Millisecond,
		ListMaxAttempts: getenvInt("FORMDESK_LIST_MAX_ATTEMPTS", 3),
		RetryDelay:      time.Duration(getenvInt("FORMDESK_RETRY_DELAY_MS", 1000)) * time.Millisecond,

		ViewerLoadDelay:       time.Duration(getenvInt("FORMDESK_VIEWER_LOAD_DELAY_MS", 150)) * time.Millisecond,
		ViewerCloseDelay:      time.Duration(getenvInt("FORMDESK_VIEWER_CLOSE_DELAY_MS", 250)) * time.Millisecond,
		ViewerFallbackTimeout: time.Duration(getenvInt("FORMDESK_VIEWER_FALLBACK_MS", 4500)) * time.Millisecond,

		ToastDuration: time.Duration(getenvInt("FORMDESK_TOAST_DURATION_MS", 1400)) * time.Millisecond,

		ChromeEnabled: getenvBool("FORMDESK_CHROME_ENABLED", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
