package updater

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	update "github.com/inconshreveable/go-update"

	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/logging"
)

// Client swaps the running xorcist binary for the newest build on a release
// channel and can undo the last swap.
type Client struct {
	// Settings carries the feed URL and default channel resolved by
	// config.Load.
	Settings config.UpdateConfig
	// Dir holds update-state.toml and the backup binary. Empty means
	// config.HomeDir().
	Dir        string
	HTTPClient *http.Client
	// ExecPath defaults to os.Executable().
	ExecPath string
	Version  string
	Out      io.Writer
	// Audit receives update_applied and update_failed events when set.
	Audit *logging.AuditLogger
}

// Update installs the newest build published on channel, falling back to
// Settings.Channel when channel is empty. A delta is used when the manifest
// offers one for the running version.
func (c *Client) Update(ctx context.Context, channel string) error {
	if channel == "" {
		channel = c.Settings.Channel
	}
	channel, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}
	dir, err := c.stateDir()
	if err != nil {
		return err
	}
	execPath, err := c.execPath()
	if err != nil {
		return err
	}

	f := fetcher{client: c.HTTPClient, channel: channel, userAgent: defaultUserAgent(c.Version)}
	manifest, _, err := f.manifest(ctx, c.Settings.BaseURL)
	if err != nil {
		return err
	}
	running := c.runningVersion()
	if manifest.Version == running {
		fmt.Fprintf(c.out(), "xorcist %s is already the newest build on the %s channel\n", running, channel)
		return nil
	}
	build, ok := manifest.BuildFor(runtime.GOOS, runtime.GOARCH)
	if !ok {
		return fmt.Errorf("no build available for %s/%s in manifest", runtime.GOOS, runtime.GOARCH)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	backup := filepath.Join(dir, backupFileName)
	err = c.installBuild(ctx, f, build, running, execPath, backup)
	if err == nil {
		err = SaveState(dir, State{
			Version:         manifest.Version,
			PreviousVersion: running,
			BackupPath:      backup,
			AppliedAt:       time.Now().UTC(),
		})
	}
	if err != nil {
		c.audit(logging.EventUpdateFailed, err.Error(), map[string]any{"version": manifest.Version, "channel": channel})
		return err
	}

	c.audit(logging.EventUpdateApplied, "", map[string]any{"version": manifest.Version, "previous": running, "channel": channel})
	fmt.Fprintf(c.out(), "updated xorcist to %s on the %s channel\n", manifest.Version, channel)
	return nil
}

// installBuild swaps in build, using the bsdiff patch when build carries a
// delta from running and the full binary otherwise.
func (c *Client) installBuild(ctx context.Context, f fetcher, build Build, running, execPath, backup string) error {
	want, err := DecodeHex(build.Full.SHA256)
	if err != nil {
		return fmt.Errorf("decode full checksum: %w", err)
	}
	if d := build.Delta; d != nil && strings.TrimSpace(d.FromVersion) == running {
		patch, err := fetchArtifact(ctx, f, d.URL, d.SHA256)
		if err == nil {
			return install(execPath, patch, want, update.NewBSDiffPatcher(), backup)
		}
		fmt.Fprintf(c.out(), "delta download failed (%v); fetching the full build\n", err)
	}
	full, err := fetchArtifact(ctx, f, build.Full.URL, build.Full.SHA256)
	if err != nil {
		return err
	}
	return install(execPath, full, want, nil, backup)
}

// Rollback restores the binary saved by the last Update or Rollback.
func (c *Client) Rollback() error {
	dir, err := c.stateDir()
	if err != nil {
		return err
	}
	st, err := LoadState(dir)
	if err != nil {
		return err
	}
	if st.BackupPath == "" {
		return errors.New("no rollback backup recorded")
	}
	backup, err := os.ReadFile(st.BackupPath)
	if err != nil {
		return fmt.Errorf("read backup binary: %w", err)
	}
	execPath, err := c.execPath()
	if err != nil {
		return err
	}
	sum := sha256.Sum256(backup)
	if err := install(execPath, backup, sum[:], nil, st.BackupPath); err != nil {
		return err
	}

	st.Version, st.PreviousVersion = st.PreviousVersion, st.Version
	st.AppliedAt = time.Now().UTC()
	if err := SaveState(dir, st); err != nil {
		return err
	}
	c.audit(logging.EventUpdateApplied, "rollback", map[string]any{"version": st.Version})
	fmt.Fprintf(c.out(), "rolled back xorcist to %s\n", st.Version)
	return nil
}

func fetchArtifact(ctx context.Context, f fetcher, url, sha string) ([]byte, error) {
	want, err := DecodeHex(sha)
	if err != nil {
		return nil, fmt.Errorf("decode checksum for %s: %w", url, err)
	}
	data, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if got := sha256.Sum256(data); !bytes.Equal(got[:], want) {
		return nil, fmt.Errorf("checksum mismatch for %s", url)
	}
	return data, nil
}

// install replaces target with payload, moving the current binary to backup.
// checksum is verified against the final binary after patching.
func install(target string, payload, checksum []byte, patcher update.Patcher, backup string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}
	opts := update.Options{
		TargetPath:  target,
		TargetMode:  info.Mode(),
		Checksum:    checksum,
		Hash:        crypto.SHA256,
		Patcher:     patcher,
		OldSavePath: backup,
	}
	if err := opts.CheckPermissions(); err != nil {
		return fmt.Errorf("insufficient permissions to update %s: %w", target, err)
	}
	if err := update.Apply(bytes.NewReader(payload), opts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("replace %s: %v (restore failed: %v)", target, err, rerr)
		}
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

func (c *Client) stateDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	return config.HomeDir()
}

func (c *Client) execPath() (string, error) {
	if strings.TrimSpace(c.ExecPath) != "" {
		return c.ExecPath, nil
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determine executable path: %w", err)
	}
	return path, nil
}

func (c *Client) runningVersion() string {
	if v := strings.TrimSpace(c.Version); v != "" {
		return v
	}
	return "dev"
}

func (c *Client) out() io.Writer {
	if c.Out == nil {
		return io.Discard
	}
	return c.Out
}

func (c *Client) audit(eventType logging.EventType, reason string, meta map[string]any) {
	if c.Audit == nil {
		return
	}
	_ = c.Audit.Emit(logging.AuditEvent{
		EventType: eventType,
		Decision:  logging.DecisionInfo,
		Reason:    reason,
		Metadata:  meta,
	})
}
