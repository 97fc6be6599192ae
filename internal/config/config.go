package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/xorcist/internal/env"
)

// Config captures the xorcist configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	Workers    int          `yaml:"workers" toml:"workers"`
	RecipesDir string       `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLog   string       `yaml:"audit_log" toml:"audit_log"`
	Server     ServerConfig `yaml:"server" toml:"server"`
	Update     UpdateConfig `yaml:"update" toml:"update"`
}

// ServerConfig controls the gRPC service started by `xorcist serve`.
type ServerConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	MaxConns int    `yaml:"max_conns" toml:"max_conns"`
}

// UpdateConfig points self-update at a release feed.
type UpdateConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Channel string `yaml:"channel" toml:"channel"`
}

// Default returns the built-in xorcist configuration.
func Default() Config {
	return Config{
		Workers:    0,
		RecipesDir: "",
		AuditLog:   "",
		Server: ServerConfig{
			Addr:     "127.0.0.1:50061",
			MaxConns: 64,
		},
		Update: UpdateConfig{
			BaseURL: "https://updates.xorcist.dev",
			Channel: "stable",
		},
	}
}

const homeConfigName = "config.toml"

// HomeDir returns ~/.xorcist, or XORCIST_HOME when set.
func HomeDir() (string, error) {
	if dir, ok := env.Lookup(env.Name("home")); ok {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".xorcist"), nil
}

// Load resolves the xorcist configuration using defaults, configuration files,
// and environment overrides. Files are applied in this order, later ones
// winning:
//  1. ~/.xorcist/config.toml (TOML)
//  2. ./xorcist.yml (YAML)
//
// Environment variables prefixed with XORCIST_ have the highest precedence.
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("server.max_conns must not be negative, got %d", c.Server.MaxConns)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr cannot be empty")
	}
	return nil
}

func loadHomeConfig(cfg *Config) error {
	dir, err := HomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return loadFile(cfg, filepath.Join(dir, homeConfigName), "toml")
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(wd, "xorcist.yml"), "yaml")
}

func loadFile(cfg *Config, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data, format); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// fileConfig mirrors Config with pointers so absent keys leave earlier
// values alone.
type fileConfig struct {
	Workers    *int              `yaml:"workers" toml:"workers"`
	RecipesDir *string           `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLog   *string           `yaml:"audit_log" toml:"audit_log"`
	Server     *fileServerConfig `yaml:"server" toml:"server"`
	Update     *fileUpdateConfig `yaml:"update" toml:"update"`
}

type fileServerConfig struct {
	Addr     *string `yaml:"addr" toml:"addr"`
	MaxConns *int    `yaml:"max_conns" toml:"max_conns"`
}

type fileUpdateConfig struct {
	BaseURL *string `yaml:"base_url" toml:"base_url"`
	Channel *string `yaml:"channel" toml:"channel"`
}

func applyFileConfig(cfg *Config, data []byte, format string) error {
	var fc fileConfig
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return err
		}
	case "toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.RecipesDir != nil {
		cfg.RecipesDir = strings.TrimSpace(*fc.RecipesDir)
	}
	if fc.AuditLog != nil {
		cfg.AuditLog = strings.TrimSpace(*fc.AuditLog)
	}
	if fc.Server != nil {
		if fc.Server.Addr != nil {
			cfg.Server.Addr = strings.TrimSpace(*fc.Server.Addr)
		}
		if fc.Server.MaxConns != nil {
			cfg.Server.MaxConns = *fc.Server.MaxConns
		}
	}
	if fc.Update != nil {
		if fc.Update.BaseURL != nil {
			cfg.Update.BaseURL = strings.TrimSpace(*fc.Update.BaseURL)
		}
		if fc.Update.Channel != nil {
			cfg.Update.Channel = strings.TrimSpace(*fc.Update.Channel)
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if val, ok := env.Lookup(env.Name("workers"), env.Name("crack_workers")); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", env.Name("workers"), err)
		}
		cfg.Workers = n
	}
	if val, ok := env.Lookup(env.Name("recipes_dir")); ok {
		cfg.RecipesDir = val
	}
	if val, ok := env.Lookup(env.Name("audit_log")); ok {
		cfg.AuditLog = val
	}
	if val, ok := env.Lookup(env.Name("server_addr"), env.Name("server")); ok {
		cfg.Server.Addr = val
	}
	if val, ok := env.Lookup(env.Name("server_max_conns")); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", env.Name("server_max_conns"), err)
		}
		cfg.Server.MaxConns = n
	}
	if val, ok := env.Lookup(env.Name("update_base_url")); ok {
		cfg.Update.BaseURL = val
	}
	if val, ok := env.Lookup(env.Name("update_channel")); ok {
		cfg.Update.Channel = val
	}
	return nil
}

// ResolveRecipesDir returns RecipesDir, defaulting to recipes/ under HomeDir.
func (c Config) ResolveRecipesDir() (string, error) {
	if c.RecipesDir != "" {
		return c.RecipesDir, nil
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "recipes"), nil
}

// SetHomeValue records key (a dotted path such as "update.channel") in
// HomeDir/config.toml so later Load calls pick it up. Other keys already in
// the file are preserved.
func SetHomeValue(key string, value interface{}) error {
	dir, err := HomeDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, homeConfigName)

	var tree *toml.Tree
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		tree, err = toml.TreeFromMap(map[string]interface{}{})
	case err != nil:
		return fmt.Errorf("read config %s: %w", path, err)
	default:
		tree, err = toml.LoadBytes(data)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	tree.Set(key, value)

	// Reject values Load would refuse before they reach disk.
	check := Default()
	out, err := tree.ToTomlString()
	if err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	if err := applyFileConfig(&check, []byte(out), "toml"); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := check.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, homeConfigName+".*")
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
