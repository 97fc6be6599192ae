// Command xorcist-release writes signed self-update manifests, one per
// release channel, from YAML channel descriptions.
package main

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/xorcist/internal/env"
	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/updater"
)

type artifactInput struct {
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

type deltaInput struct {
	FromVersion   string `yaml:"from_version"`
	artifactInput `yaml:",inline"`
}

type buildInput struct {
	OS    string        `yaml:"os"`
	Arch  string        `yaml:"arch"`
	Full  artifactInput `yaml:"full"`
	Delta *deltaInput   `yaml:"delta"`
}

type channelInput struct {
	Channel  string       `yaml:"channel"`
	Version  string       `yaml:"version"`
	NotesURL string       `yaml:"notes_url"`
	Builds   []buildInput `yaml:"builds"`
}

func main() {
	configDir := flag.String("config", "release/channels", "directory of channel .yml files")
	outDir := flag.String("out", "out/updater", "output directory for manifests")
	flag.Parse()

	key, err := loadSigningKey()
	if err != nil {
		fatal(err)
	}
	if err := buildManifests(*configDir, *outDir, key, time.Now()); err != nil {
		fatal(err)
	}
}

// buildManifests writes <outDir>/<channel>/manifest.json and its .sig for
// every channel file in configDir. A bad channel does not stop the others;
// all failures are returned together.
func buildManifests(configDir, outDir string, key ed25519.PrivateKey, now time.Time) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("read config dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var configs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yml", ".yaml":
			configs = append(configs, filepath.Join(configDir, entry.Name()))
		}
	}
	sort.Strings(configs)
	if len(configs) == 0 {
		return errors.New("no channel configuration files found")
	}

	var result *multierror.Error
	for _, file := range configs {
		if err := processChannel(file, outDir, key, now); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", file, err))
		}
	}
	return result.ErrorOrNil()
}

func processChannel(path, outDir string, key ed25519.PrivateKey, now time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var input channelInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	channel, err := updater.NormalizeChannel(input.Channel)
	if err != nil {
		return err
	}
	if strings.TrimSpace(input.Version) == "" {
		return errors.New("version is required")
	}
	if len(input.Builds) == 0 {
		return errors.New("at least one build must be defined")
	}

	manifest := updater.Manifest{
		Version:  strings.TrimSpace(input.Version),
		Channel:  channel,
		NotesURL: strings.TrimSpace(input.NotesURL),
		Metadata: updater.ManifestMeta{GeneratedAt: now.UTC().Format(time.RFC3339)},
	}

	baseDir := filepath.Dir(path)
	for i, build := range input.Builds {
		if strings.TrimSpace(build.OS) == "" || strings.TrimSpace(build.Arch) == "" {
			return fmt.Errorf("build %d missing os/arch", i)
		}
		full, err := resolveArtifact(build.Full, baseDir)
		if err != nil {
			return fmt.Errorf("build %d full artifact: %w", i, err)
		}
		var delta *updater.Delta
		if build.Delta != nil {
			if strings.TrimSpace(build.Delta.FromVersion) == "" {
				return fmt.Errorf("build %d delta: from_version is required", i)
			}
			art, err := resolveArtifact(build.Delta.artifactInput, baseDir)
			if err != nil {
				return fmt.Errorf("build %d delta: %w", i, err)
			}
			delta = &updater.Delta{FromVersion: strings.TrimSpace(build.Delta.FromVersion), URL: art.URL, SHA256: art.SHA256}
		}
		manifest.Builds = append(manifest.Builds, updater.Build{
			OS:    strings.TrimSpace(build.OS),
			Arch:  strings.TrimSpace(build.Arch),
			Full:  full,
			Delta: delta,
		})
	}

	manifestPath := filepath.Join(outDir, channel, "manifest.json")
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	if err := writeManifest(manifestPath, manifest); err != nil {
		return err
	}
	return writeSignature(manifestPath, key)
}

// resolveArtifact fills in the checksum from Path when SHA256 is not given.
// Published checksums are always lowercase hex.
func resolveArtifact(in artifactInput, baseDir string) (updater.Artifact, error) {
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return updater.Artifact{}, errors.New("artifact url is required")
	}
	sha := strings.TrimSpace(in.SHA256)
	if sha != "" {
		sum, err := updater.DecodeHex(sha)
		if err != nil {
			return updater.Artifact{}, err
		}
		return updater.Artifact{URL: url, SHA256: hexcodec.EncodeToString(sum)}, nil
	}

	path := strings.TrimSpace(in.Path)
	if path == "" {
		return updater.Artifact{}, errors.New("artifact sha256 or path must be provided")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	sum, err := fileSHA256(path)
	if err != nil {
		return updater.Artifact{}, err
	}
	return updater.Artifact{URL: url, SHA256: sum}, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hexcodec.EncodeToString(h.Sum(nil)), nil
}

func writeManifest(path string, manifest updater.Manifest) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func writeSignature(manifestPath string, key ed25519.PrivateKey) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest for signing: %w", err)
	}
	sig := ed25519.Sign(key, data)
	if err := os.WriteFile(manifestPath+".sig", []byte(base64.StdEncoding.EncodeToString(sig)), 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

func loadSigningKey() (ed25519.PrivateKey, error) {
	keyVar := env.Name("updater_signing_key")
	raw, ok := env.Lookup(keyVar)
	if !ok {
		return nil, fmt.Errorf("%s is not set", keyVar)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyVar, err)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%s has invalid length %d", keyVar, len(decoded))
	}
	return ed25519.PrivateKey(decoded), nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
