package cipher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/keyfinder"
)

var lowerHexPattern = regexp.MustCompile(`^[0-9a-f]+$`)

// lz4FrameMagic opens every LZ4 frame.
var lz4FrameMagic = []byte{0x04, 0x22, 0x4d, 0x18}

// minCrackConfidence is the letter ratio below which a recovered plaintext
// is not worth reporting.
const minCrackConfidence = 0.6

// SmartDetector guesses how input was produced
type SmartDetector struct {
	finder *keyfinder.Finder
}

// NewSmartDetector creates a new smart detector
func NewSmartDetector() *SmartDetector {
	return &SmartDetector{finder: &keyfinder.Finder{}}
}

// Detect attempts to identify the encoding of the input
func (d *SmartDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	results := []DetectionResult{}
	results = append(results, d.detectHex(input)...)
	results = append(results, d.detectLZ4(input)...)

	xorResults, err := d.detectSingleByteXOR(ctx, input)
	if err != nil {
		return nil, err
	}
	results = append(results, xorResults...)

	sortResultsByConfidence(results)

	filtered := []DetectionResult{}
	for _, r := range results {
		if r.Confidence >= 0.3 {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

// SupportedEncodings returns a list of encodings this detector can identify
func (d *SmartDetector) SupportedEncodings() []string {
	return []string{
		"hex",
		"lz4",
		"xor-single-byte",
	}
}

// detectHex checks if input is lowercase hexadecimal
func (d *SmartDetector) detectHex(input []byte) []DetectionResult {
	cleaned := cleanHex(input)
	if !lowerHexPattern.Match(cleaned) || len(cleaned)%2 != 0 {
		return nil
	}

	confidence := 0.8
	if bytes.HasPrefix(bytes.TrimSpace(input), []byte("0x")) {
		confidence = 0.95
	}
	// all digits could just as well be decimal
	if regexp.MustCompile(`^[0-9]+$`).Match(cleaned) {
		confidence *= 0.6
	}

	return []DetectionResult{{
		Encoding:   "hex",
		Confidence: confidence,
		Reasoning:  "Matches lowercase hexadecimal pattern",
		Operation:  "hex_decode",
	}}
}

// detectLZ4 checks for the LZ4 frame magic number
func (d *SmartDetector) detectLZ4(input []byte) []DetectionResult {
	if !bytes.HasPrefix(input, lz4FrameMagic) {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "lz4",
		Confidence: 0.99,
		Reasoning:  "Starts with LZ4 frame magic bytes (0x04 0x22 0x4d 0x18)",
		Operation:  "lz4_decompress",
	}}
}

// detectSingleByteXOR runs the key search over hex input and reports a hit
// when the best plaintext is mostly letters.
func (d *SmartDetector) detectSingleByteXOR(ctx context.Context, input []byte) ([]DetectionResult, error) {
	cleaned := cleanHex(input)
	if !lowerHexPattern.Match(cleaned) || len(cleaned)%2 != 0 {
		return nil, nil
	}
	ciphertext, err := hexcodec.Decode(cleaned)
	if err != nil {
		return nil, nil
	}

	cand, err := d.finder.FindBytes(ctx, ciphertext)
	if errors.Is(err, keyfinder.ErrNoCandidate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ratio := float64(cand.Score) / float64(len(ciphertext))
	if ratio < minCrackConfidence {
		return nil, nil
	}

	return []DetectionResult{{
		Encoding:   "xor-single-byte",
		Confidence: ratio * 0.9,
		Reasoning:  fmt.Sprintf("Key 0x%02x yields %d letters in %d bytes", cand.Key, cand.Score, len(ciphertext)),
		Operation:  "crack_single_byte",
	}}, nil
}

// sortResultsByConfidence sorts detection results by confidence (descending)
func sortResultsByConfidence(results []DetectionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
}

// DecodeAll attempts to decode using all detected encodings
func DecodeAll(ctx context.Context, input []byte) ([]DecodeResult, error) {
	return DecodeAllWith(ctx, Default(), input)
}

// DecodeAllWith is DecodeAll resolving operations through reg.
func DecodeAllWith(ctx context.Context, reg *Registry, input []byte) ([]DecodeResult, error) {
	detector := NewSmartDetector()
	detections, err := detector.Detect(ctx, input)
	if err != nil {
		return nil, err
	}

	results := []DecodeResult{}
	for _, detection := range detections {
		op, exists := reg.Get(detection.Operation)
		if !exists {
			continue
		}

		decoded, err := op.Execute(ctx, input, nil)
		if err != nil {
			results = append(results, DecodeResult{
				Detection: detection,
				Error:     err.Error(),
			})
			continue
		}

		results = append(results, DecodeResult{
			Detection: detection,
			Decoded:   decoded,
			Success:   true,
		})
	}

	return results, nil
}

// DecodeResult represents the result of a decode attempt
type DecodeResult struct {
	Detection DetectionResult `json:"detection"`
	Decoded   []byte          `json:"decoded"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}
