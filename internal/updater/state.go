package updater

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	// ChannelStable is the default release channel.
	ChannelStable = "stable"
	// ChannelBeta carries release candidates.
	ChannelBeta = "beta"
)

// NormalizeChannel folds case and maps "" to ChannelStable.
func NormalizeChannel(channel string) (string, error) {
	switch c := strings.ToLower(strings.TrimSpace(channel)); c {
	case "":
		return ChannelStable, nil
	case ChannelStable, ChannelBeta:
		return c, nil
	default:
		return "", fmt.Errorf("unknown update channel %q (want %s or %s)", channel, ChannelStable, ChannelBeta)
	}
}

const (
	stateFileName  = "update-state.toml"
	backupFileName = "xorcist.previous"
)

// State records the last binary swap so it can be undone. The channel is not
// part of it; that lives in the regular xorcist config.
type State struct {
	Version         string    `toml:"version"`
	PreviousVersion string    `toml:"previous_version"`
	BackupPath      string    `toml:"backup_path"`
	AppliedAt       time.Time `toml:"applied_at"`
}

// LoadState reads dir/update-state.toml. A missing file yields a zero State.
func LoadState(dir string) (State, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read update state: %w", err)
	}
	var st State
	if err := toml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse update state %s: %w", path, err)
	}
	return st, nil
}

// SaveState writes st to dir/update-state.toml.
func SaveState(dir string, st State) error {
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode update state: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFileName), data, 0o600); err != nil {
		return fmt.Errorf("write update state: %w", err)
	}
	return nil
}
