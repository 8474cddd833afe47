// Package config loads client settings from an optional .env file and the
// process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "https://cs2031-2025-2-hackathon-2-backend-production.up.railway.app/v1"

type Config struct {
	ConfigPath string

	APIURL      string
	HTTPTimeout time.Duration

	// DBPath empty means the store's default location.
	DBPath   string
	LogFile  string
	LogLevel string

	ToastDuration   time.Duration
	TaskPageSize    int
	ProjectPageSize int
}

// Load reads path (a missing file is fine) and then the environment. The
// returned bool reports whether the file was found.
func Load(path string) (Config, bool) {
	found := true
	if err := godotenv.Load(path); err != nil {
		found = false
	}

	dataDir := defaultDataDir()
	cfg := Config{
		ConfigPath: filepath.Base(path),

		APIURL:      strings.TrimRight(getEnv("TECHFLOW_API_URL", DefaultAPIURL), "/"),
		HTTPTimeout: getDurationEnv("TECHFLOW_HTTP_TIMEOUT", 15*time.Second),

		DBPath:   getEnv("TECHFLOW_DB_PATH", ""),
		LogFile:  getEnv("TECHFLOW_LOG_FILE", filepath.Join(dataDir, "techflow.log")),
		LogLevel: getEnv("TECHFLOW_LOG_LEVEL", "info"),

		ToastDuration:   time.Duration(getIntEnv("TECHFLOW_TOAST_MS", 3000)) * time.Millisecond,
		TaskPageSize:    getIntEnv("TECHFLOW_TASK_PAGE_SIZE", 20),
		ProjectPageSize: getIntEnv("TECHFLOW_PROJECT_PAGE_SIZE", 10),
	}
	return cfg, found
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "techflow")
}

func getEnv(env, fallback string) string {
	if value, exists := os.LookupEnv(env); exists && value != "" {
		return value
	}
	return fallback
}

// getIntEnv ignores values that are not positive integers.
func getIntEnv(env string, fallback int) int {
	if value, exists := os.LookupEnv(env); exists {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// getDurationEnv accepts a Go duration ("20s") or a bare number of seconds.
func getDurationEnv(env string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(env)
	if !exists {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// String dumps every field, one per line, for the debug log.
func (cfg Config) String() string {
	var b strings.Builder

	values := reflect.ValueOf(cfg)
	types := values.Type()

	fmt.Fprintf(&b, "[CFG] configuration: %s\n", cfg.ConfigPath)
	for i := range values.NumField() {
		fmt.Fprintf(&b, "[CFG] %2d. %-16s -> %v\n", i+1, types.Field(i).Name, values.Field(i).Interface())
	}
	return b.String()
}
