package updater

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/RowanDark/xorcist/internal/env"
	"github.com/RowanDark/xorcist/internal/hexcodec"
)

// DefaultBaseURL serves <channel>/manifest.json and its .sig.
const DefaultBaseURL = "https://updates.xorcist.dev"

// releasePublicKeyBase64 holds the ed25519 public key that signs production
// manifests. XORCIST_UPDATER_PUBLIC_KEY overrides it.
const releasePublicKeyBase64 = "DsqqWOb+eXNTQ59lEubZDQuXJDd5E15DEPc/kW8wJK0="

// Manifest lists the builds of one release on one channel.
type Manifest struct {
	Version  string       `json:"version"`
	NotesURL string       `json:"notes_url,omitempty"`
	Builds   []Build      `json:"builds"`
	Channel  string       `json:"channel"`
	Metadata ManifestMeta `json:"metadata,omitempty"`
}

// ManifestMeta is informational; clients ignore it.
type ManifestMeta struct {
	GeneratedAt string `json:"generated_at,omitempty"`
}

// Build is the release for one GOOS/GOARCH pair.
type Build struct {
	OS    string   `json:"os"`
	Arch  string   `json:"arch"`
	Full  Artifact `json:"full"`
	Delta *Delta   `json:"delta,omitempty"`
}

// Artifact is a complete xorcist binary and its SHA-256.
type Artifact struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// Delta is a bsdiff patch from FromVersion to the manifest version. Its
// SHA256 covers the patch, not the patched binary.
type Delta struct {
	FromVersion string `json:"from_version"`
	URL         string `json:"url"`
	SHA256      string `json:"sha256"`
}

// BuildFor picks the build for goos/goarch, ignoring case.
func (m Manifest) BuildFor(goos, goarch string) (Build, bool) {
	for _, b := range m.Builds {
		if strings.EqualFold(b.OS, goos) && strings.EqualFold(b.Arch, goarch) {
			return b, true
		}
	}
	return Build{}, false
}

// DecodeManifest parses manifest JSON and rejects one without a version or builds.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if strings.TrimSpace(m.Version) == "" {
		return Manifest{}, errors.New("manifest missing version")
	}
	if len(m.Builds) == 0 {
		return Manifest{}, errors.New("manifest missing builds")
	}
	return m, nil
}

// FetchManifest downloads the manifest for channel, checks its ed25519
// signature and returns it along with the signed bytes.
func FetchManifest(ctx context.Context, client *http.Client, baseURL, channel string) (Manifest, []byte, error) {
	channel, err := NormalizeChannel(channel)
	if err != nil {
		return Manifest{}, nil, err
	}
	return fetcher{client: client, channel: channel, userAgent: defaultUserAgent("")}.manifest(ctx, baseURL)
}

// fetcher issues every update request, manifests and artifacts alike, with
// the same client, channel header and user agent.
type fetcher struct {
	client    *http.Client
	channel   string
	userAgent string
}

func (f fetcher) manifest(ctx context.Context, baseURL string) (Manifest, []byte, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	manifestURL, err := manifestURLFor(baseURL, f.channel)
	if err != nil {
		return Manifest{}, nil, err
	}
	manifestData, err := f.get(ctx, manifestURL)
	if err != nil {
		return Manifest{}, nil, err
	}
	sigData, err := f.get(ctx, manifestURL+".sig")
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("download manifest signature: %w", err)
	}

	sig, err := decodeSignature(sigData)
	if err != nil {
		return Manifest{}, nil, err
	}
	pubKey, err := loadPublicKey()
	if err != nil {
		return Manifest{}, nil, err
	}
	if !ed25519.Verify(pubKey, manifestData, sig) {
		return Manifest{}, nil, errors.New("manifest signature verification failed")
	}

	manifest, err := DecodeManifest(manifestData)
	if err != nil {
		return Manifest{}, nil, err
	}
	return manifest, manifestData, nil
}

func manifestURLFor(baseURL, channel string) (string, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return "", errors.New("empty base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = path.Join(u.Path, channel, "manifest.json")
	return u.String(), nil
}

// retryPolicy bounds how long a single download keeps retrying transient
// failures.
var retryPolicy = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

// get fetches targetURL, retrying network errors and 5xx responses. Any other
// non-200 status fails immediately.
func (f fetcher) get(ctx context.Context, targetURL string) ([]byte, error) {
	client := f.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	var data []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("construct request: %w", err))
		}
		req.Header.Set("User-Agent", f.userAgent)
		if f.channel != "" {
			req.Header.Set("X-Xorcist-Update-Channel", f.channel)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("download %s: %w", targetURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
			statusErr := fmt.Errorf("download %s: unexpected status %d: %s", targetURL, resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", targetURL, err)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(retryPolicy(), ctx)); err != nil {
		return nil, err
	}
	return data, nil
}

func defaultUserAgent(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("xorcist/%s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func decodeSignature(raw []byte) ([]byte, error) {
	text := strings.TrimSpace(string(raw))
	sig, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}
	return sig, nil
}

func loadPublicKey() (ed25519.PublicKey, error) {
	keyVar := env.Name("updater_public_key")
	if override, ok := env.Lookup(keyVar); ok {
		key, err := base64.StdEncoding.DecodeString(override)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keyVar, err)
		}
		if len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%s has invalid length %d", keyVar, len(key))
		}
		return ed25519.PublicKey(key), nil
	}
	key, err := base64.StdEncoding.DecodeString(releasePublicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode release public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("release public key has invalid length %d", len(key))
	}
	return ed25519.PublicKey(key), nil
}

// DecodeHex turns a published SHA-256 checksum into its 32 raw bytes.
// Manifests may publish uppercase digits; they are folded before decoding.
func DecodeHex(sum string) ([]byte, error) {
	cleaned := strings.ToLower(strings.TrimSpace(sum))
	if len(cleaned) == 0 {
		return nil, errors.New("empty checksum")
	}
	if len(cleaned) != hexcodec.EncodedLen(sha256.Size) {
		return nil, fmt.Errorf("invalid checksum length %d", len(cleaned))
	}
	b, err := hexcodec.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}
	return b, nil
}
