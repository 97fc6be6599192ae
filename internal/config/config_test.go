package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// isolate points HOME and XORCIST_HOME at fresh directories and moves into an
// empty working directory.
func isolate(t *testing.T) (xorcistHome, workDir string) {
	t.Helper()
	tempDir := t.TempDir()

	homeDir := filepath.Join(tempDir, "home")
	xorcistHome = filepath.Join(homeDir, ".xorcist")
	workDir = filepath.Join(tempDir, "work")
	for _, dir := range []string{xorcistHome, workDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XORCIST_HOME", "")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return xorcistHome, workDir
}

func TestLoadPrecedence(t *testing.T) {
	xorcistHome, workDir := isolate(t)

	tomlConfig := []byte(`workers = 2
recipes_dir = "/home/recipes"
audit_log = "/var/log/xorcist.jsonl"

[server]
addr = "0.0.0.0:1111"
max_conns = 8
`)
	if err := os.WriteFile(filepath.Join(xorcistHome, "config.toml"), tomlConfig, 0o644); err != nil {
		t.Fatalf("write toml config: %v", err)
	}

	// The local YAML config overrides the TOML file.
	yamlConfig := []byte(`workers: 4
server:
  addr: 127.0.0.1:6500
update:
  channel: beta
`)
	if err := os.WriteFile(filepath.Join(workDir, "xorcist.yml"), yamlConfig, 0o644); err != nil {
		t.Fatalf("write yaml config: %v", err)
	}

	// Environment overrides beat file configuration.
	t.Setenv("XORCIST_WORKERS", "16")
	t.Setenv("XORCIST_UPDATE_BASE_URL", "https://mirror.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	want := Config{
		Workers:    16,
		RecipesDir: "/home/recipes",
		AuditLog:   "/var/log/xorcist.jsonl",
		Server:     ServerConfig{Addr: "127.0.0.1:6500", MaxConns: 8},
		Update:     UpdateConfig{BaseURL: "https://mirror.example", Channel: "beta"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadXorcistHomeOverride(t *testing.T) {
	isolate(t)

	custom := t.TempDir()
	if err := os.WriteFile(filepath.Join(custom, "config.toml"), []byte(`workers = 3`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("XORCIST_HOME", custom)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Workers != 3 {
		t.Fatalf("expected workers from XORCIST_HOME config, got %d", cfg.Workers)
	}

	dir, err := cfg.ResolveRecipesDir()
	if err != nil {
		t.Fatalf("ResolveRecipesDir: %v", err)
	}
	if dir != filepath.Join(custom, "recipes") {
		t.Fatalf("unexpected recipes dir %s", dir)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{name: "negative workers", yaml: "workers: -1\n", want: "workers must not be negative"},
		{name: "blank addr", yaml: "server:\n  addr: \"  \"\n", want: "server.addr cannot be empty"},
		{name: "malformed yaml", yaml: "workers: [\n", want: "parse config"},
		{name: "bad env int", env: map[string]string{"XORCIST_SERVER_MAX_CONNS": "many"}, want: "XORCIST_SERVER_MAX_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, workDir := isolate(t)
			if tt.yaml != "" {
				if err := os.WriteFile(filepath.Join(workDir, "xorcist.yml"), []byte(tt.yaml), 0o644); err != nil {
					t.Fatalf("write yaml: %v", err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLegacyEnvName(t *testing.T) {
	isolate(t)
	t.Setenv("XORCIST_SERVER", "10.0.0.1:9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != "10.0.0.1:9" {
		t.Fatalf("expected legacy XORCIST_SERVER to apply, got %s", cfg.Server.Addr)
	}
}

func TestSetHomeValue(t *testing.T) {
	xorcistHome, _ := isolate(t)
	path := filepath.Join(xorcistHome, "config.toml")
	if err := os.WriteFile(path, []byte("workers = 2\n"), 0o644); err != nil {
		t.Fatalf("write toml config: %v", err)
	}

	if err := SetHomeValue("update.channel", "beta"); err != nil {
		t.Fatalf("SetHomeValue: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Workers != 2 {
		t.Fatalf("existing keys must survive, workers=%d", cfg.Workers)
	}
	if cfg.Update.Channel != "beta" {
		t.Fatalf("expected recorded channel beta, got %q", cfg.Update.Channel)
	}

	t.Setenv("XORCIST_UPDATE_CHANNEL", "stable")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Update.Channel != "stable" {
		t.Fatalf("environment should still win, got %q", cfg.Update.Channel)
	}
}

func TestSetHomeValueCreatesFile(t *testing.T) {
	isolate(t)
	home := filepath.Join(t.TempDir(), "fresh")
	t.Setenv("XORCIST_HOME", home)

	if err := SetHomeValue("update.channel", "beta"); err != nil {
		t.Fatalf("SetHomeValue: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(home, "config.toml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "beta") {
		t.Fatalf("expected channel in written config, got %s", data)
	}
}

func TestSetHomeValueRejectsInvalid(t *testing.T) {
	xorcistHome, _ := isolate(t)

	if err := SetHomeValue("server.max_conns", int64(-1)); err == nil {
		t.Fatalf("expected negative max_conns to be rejected")
	}
	if _, err := os.Stat(filepath.Join(xorcistHome, "config.toml")); !os.IsNotExist(err) {
		t.Fatalf("rejected value must not be written, stat err=%v", err)
	}
}
