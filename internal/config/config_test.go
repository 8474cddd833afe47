package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TECHFLOW_API_URL", "TECHFLOW_HTTP_TIMEOUT", "TECHFLOW_DB_PATH",
		"TECHFLOW_LOG_FILE", "TECHFLOW_LOG_LEVEL", "TECHFLOW_TOAST_MS",
		"TECHFLOW_TASK_PAGE_SIZE", "TECHFLOW_PROJECT_PAGE_SIZE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, found := Load(filepath.Join(t.TempDir(), "missing.env"))
	if found {
		t.Fatal("missing file should not be reported as found")
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("api url = %q", cfg.APIURL)
	}
	if cfg.TaskPageSize != 20 || cfg.ProjectPageSize != 10 {
		t.Fatalf("page sizes = %d/%d", cfg.TaskPageSize, cfg.ProjectPageSize)
	}
	if cfg.ToastDuration != 3*time.Second {
		t.Fatalf("toast = %v", cfg.ToastDuration)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.DBPath != "" {
		t.Fatalf("db path should defer to the store default, got %q", cfg.DBPath)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "TECHFLOW_API_URL=http://localhost:8080/v1/\nTECHFLOW_TOAST_MS=1500\nTECHFLOW_HTTP_TIMEOUT=3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TECHFLOW_API_URL")
		os.Unsetenv("TECHFLOW_TOAST_MS")
		os.Unsetenv("TECHFLOW_HTTP_TIMEOUT")
	})

	cfg, found := Load(path)
	if !found {
		t.Fatal("file should be found")
	}
	if cfg.APIURL != "http://localhost:8080/v1" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.APIURL)
	}
	if cfg.ToastDuration != 1500*time.Millisecond {
		t.Fatalf("toast = %v", cfg.ToastDuration)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("bare seconds should parse, got %v", cfg.HTTPTimeout)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TF_INT", "abc")
	if getIntEnv("TF_INT", 4) != 4 {
		t.Fatal("non-numeric int should fall back")
	}
	t.Setenv("TF_INT", "0")
	if getIntEnv("TF_INT", 4) != 4 {
		t.Fatal("zero should fall back")
	}
	t.Setenv("TF_DUR", "250ms")
	if getDurationEnv("TF_DUR", time.Second) != 250*time.Millisecond {
		t.Fatal("duration string should parse")
	}
	t.Setenv("TF_DUR", "soon")
	if getDurationEnv("TF_DUR", time.Second) != time.Second {
		t.Fatal("bad duration should fall back")
	}
}

func TestString(t *testing.T) {
	cfg := Config{ConfigPath: ".env", APIURL: "http://x"}
	out := cfg.String()
	if !strings.Contains(out, "APIURL") || !strings.Contains(out, "http://x") {
		t.Fatalf("dump missing fields:\n%s", out)
	}
}
