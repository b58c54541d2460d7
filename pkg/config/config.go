package config

import (
	"os"
	"strconv"
)

// Version is the client version reported against the update endpoint.
const Version = "1.0.2"

const (
	defaultVivendiURL = "https://vivendi.nrd.de/areas/selfservice/#/selfservice/dienste/"
	defaultAPIURL     = "https://vivsync.com/api/sync"
	defaultExpiryDays = 30
)

// Config carries the client-side settings. Everything is sourced from the
// environment; flags in the binaries may override individual fields.
type Config struct {
	VivendiURL   string
	Username     string
	Password     string
	WindowsLogin bool
	Headless     bool
	BrowserBin   string

	APIURL     string
	ExpiryDays int
}

// FromEnv builds a Config from environment variables, falling back to the
// stock deployment defaults.
func FromEnv() Config {
	return Config{
		VivendiURL:   getEnvOrDefault("VIVENDI_URL", defaultVivendiURL),
		Username:     os.Getenv("VIVENDI_USERNAME"),
		Password:     os.Getenv("VIVENDI_PASSWORD"),
		WindowsLogin: getEnvBool("VIVENDI_WINDOWS_LOGIN", true),
		Headless:     getEnvBool("VIVSYNC_HEADLESS", true),
		BrowserBin:   os.Getenv("VIVSYNC_BROWSER_BIN"),
		APIURL:       getEnvOrDefault("VIVSYNC_API_URL", defaultAPIURL),
		ExpiryDays:   getEnvInt("ICAL_EXPIRY_DAYS", defaultExpiryDays),
	}
}

// DefaultExpiryDays is used by the server side when a request does not name
// its own validity window.
func DefaultExpiryDays() int {
	return getEnvInt("ICAL_EXPIRY_DAYS", defaultExpiryDays)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return defaultVal
	}
	return parsed
}
