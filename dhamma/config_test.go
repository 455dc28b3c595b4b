package dhamma

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config error = %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[web]
host = "0.0.0.0"
port = 8080
cors_origins = ["http://localhost:5173", "https://dhamma.example"]
session_secret = "secret"

[db]
host = "localhost"
port = 5432
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Web.Port)
	}
	if len(cfg.Web.CORSOrigins) != 2 {
		t.Errorf("cors_origins = %d entries, want 2", len(cfg.Web.CORSOrigins))
	}
}

func TestLoadConfigRejectsBadOrigins(t *testing.T) {
	tests := []struct {
		name    string
		origins string
	}{
		{"missing", ``},
		{"empty list", `cors_origins = []`},
		{"empty entry", `cors_origins = [""]`},
		{"wildcard", `cors_origins = ["*"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "[web]\nsession_secret = \"secret\"\n"+tt.origins+"\n")
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("LoadConfig() accepted a config the CORS middleware cannot run with")
			}
			if !strings.Contains(err.Error(), "cors_origins") {
				t.Errorf("error = %v, want mention of cors_origins", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("LoadConfig() succeeded on a missing file")
	}
}
