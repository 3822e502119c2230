package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by TRUTHKEEPER_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TRUTHKEEPER_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// APIKey is the bearer token required on /v1 routes.
// Authentication is disabled when unset.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// WorkspaceIdleTTL is how long a workspace may go unused before the reaper
// evicts it. Defaults to 1h.
func WorkspaceIdleTTL() time.Duration {
	return duration("WORKSPACE_IDLE_TTL", time.Hour)
}

// ReaperInterval is how often idle workspaces are checked. Defaults to 5m.
func ReaperInterval() time.Duration {
	return duration("REAPER_INTERVAL", 5*time.Minute)
}

// MaxWorkspaces caps live workspaces. Zero means unlimited.
func MaxWorkspaces() int {
	n, err := strconv.Atoi(os.Getenv("MAX_WORKSPACES"))
	if err != nil || n < 0 {
		return 1000
	}
	return n
}

// DefaultStrict is used when a JTMS workspace is created without an explicit
// strict flag.
func DefaultStrict() bool {
	return boolean("TMS_STRICT", false)
}

// CheckInvariants turns on engine self-checks that panic on violation.
func CheckInvariants() bool {
	return boolean("TMS_CHECK_INVARIANTS", false)
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
