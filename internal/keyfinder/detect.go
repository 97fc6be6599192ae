package keyfinder

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Detection identifies which of several ciphertexts was most likely produced
// by a single-byte XOR over English text.
type Detection struct {
	Line      int
	Candidate Candidate
}

// Detect runs the key search over each hex line and returns the best scoring
// one. Blank lines are skipped; the earliest line wins ties. A malformed line
// aborts the search with its line number attached.
func (f *Finder) Detect(ctx context.Context, hexLines []string) (Detection, error) {
	var best Detection
	found := false
	for i, line := range hexLines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cand, err := f.Find(ctx, line)
		if errors.Is(err, ErrNoCandidate) {
			continue
		}
		if err != nil {
			return Detection{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		if !found || cand.Score > best.Candidate.Score {
			best = Detection{Line: i + 1, Candidate: cand}
			found = true
		}
	}
	if !found {
		return Detection{}, ErrNoCandidate
	}
	return best, nil
}
