// Package keyfinder recovers the key of a single-byte XOR cipher by trying
// every byte value and ranking the candidate plaintexts by how many ASCII
// letters they contain.
package keyfinder

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/xorop"
)

// KeySpace is the number of distinct single-byte keys.
const KeySpace = 256

// ErrNoCandidate is returned when no key produces a plaintext scoring above
// zero, including the empty ciphertext case.
var ErrNoCandidate = errors.New("no plausible key found")

// Candidate is the winning key together with its decoded plaintext.
type Candidate struct {
	Key       byte
	Plaintext []byte
	Score     int
}

// Scorer ranks a candidate plaintext. Higher is more plausible.
type Scorer func(plaintext []byte) int

// Score counts the bytes of buf in 'a'-'z' or 'A'-'Z'.
func Score(buf []byte) int {
	n := 0
	for _, c := range buf {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			n++
		}
	}
	return n
}

// Finder searches the single-byte key space. The zero value scans
// sequentially with Score.
type Finder struct {
	// Workers splits the key space across this many goroutines. Values below
	// two scan on the calling goroutine.
	Workers int
	// Scorer replaces Score when set.
	Scorer Scorer
}

var defaultFinder = &Finder{}

// Find decodes hexText and returns the best scoring key using the default Finder.
func Find(hexText string) (Candidate, error) {
	return defaultFinder.Find(context.Background(), hexText)
}

// Find decodes hexText and searches it for the best scoring key. Hex decode
// errors are returned unchanged.
func (f *Finder) Find(ctx context.Context, hexText string) (Candidate, error) {
	ciphertext, err := hexcodec.DecodeString(hexText)
	if err != nil {
		return Candidate{}, err
	}
	return f.FindBytes(ctx, ciphertext)
}

// FindBytes searches ciphertext for the best scoring key. Among equally
// scoring keys the lowest one wins.
func (f *Finder) FindBytes(ctx context.Context, ciphertext []byte) (Candidate, error) {
	if len(ciphertext) == 0 {
		return Candidate{}, ErrNoCandidate
	}
	score := f.scorer()

	workers := f.Workers
	if workers > KeySpace {
		workers = KeySpace
	}

	var best trial
	if workers < 2 {
		var err error
		best, err = scanRange(ctx, ciphertext, 0, KeySpace, score)
		if err != nil {
			return Candidate{}, err
		}
	} else {
		results := make([]trial, workers)
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			lo := w * KeySpace / workers
			hi := (w + 1) * KeySpace / workers
			g.Go(func() error {
				res, err := scanRange(gctx, ciphertext, lo, hi, score)
				results[w] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return Candidate{}, err
		}
		// Partitions are in ascending key order, so keeping the first strict
		// maximum preserves lowest-key-wins.
		for _, res := range results {
			if res.score > best.score {
				best = res
			}
		}
	}

	if best.score == 0 {
		return Candidate{}, ErrNoCandidate
	}
	plaintext := make([]byte, len(ciphertext))
	xorop.SingleByte(plaintext, ciphertext, best.key)
	return Candidate{Key: best.key, Plaintext: plaintext, Score: best.score}, nil
}

func (f *Finder) scorer() Scorer {
	if f == nil || f.Scorer == nil {
		return Score
	}
	return f.Scorer
}

type trial struct {
	key   byte
	score int
}

// scanRange tries keys in [lo, hi) with a private scratch buffer.
func scanRange(ctx context.Context, ciphertext []byte, lo, hi int, score Scorer) (trial, error) {
	var best trial
	scratch := make([]byte, len(ciphertext))
	for k := lo; k < hi; k++ {
		if err := ctx.Err(); err != nil {
			return trial{}, fmt.Errorf("key search interrupted at 0x%02x: %w", k, err)
		}
		xorop.SingleByte(scratch, ciphertext, byte(k))
		if s := score(scratch); s > best.score {
			best = trial{key: byte(k), score: s}
		}
	}
	return best, nil
}
