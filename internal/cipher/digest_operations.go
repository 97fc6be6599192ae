package cipher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/RowanDark/xorcist/internal/hexcodec"
)

// LZ4 Compression Operations

var lz4WriterPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

var lz4ReaderPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// LZ4CompressOp compresses data into an LZ4 frame
type LZ4CompressOp struct {
	BaseOperation
}

func (op *LZ4CompressOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4WriterPool.Get().(*lz4.Writer)
	defer lz4WriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("lz4 write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close failed: %w", err)
	}
	return buf.Bytes(), nil
}

// MaxLZ4Output is the default cap on lz4_decompress output. The max_output
// parameter overrides it per call.
const MaxLZ4Output = 64 << 20

// LZ4DecompressOp decompresses an LZ4 frame
type LZ4DecompressOp struct {
	BaseOperation
}

func (op *LZ4DecompressOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	limit, err := paramInt(params, "max_output", MaxLZ4Output)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w %q: must be positive, got %d", ErrInvalidParameter, "max_output", limit)
	}

	r := lz4ReaderPool.Get().(*lz4.Reader)
	defer lz4ReaderPool.Put(r)
	r.Reset(bytes.NewReader(input))

	// one extra byte tells a frame that fits exactly from one that overflows
	output, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("lz4 read failed: %w", err)
	}
	if len(output) > limit {
		return nil, fmt.Errorf("%w %q: decompressed output exceeds %d bytes", ErrInvalidParameter, "max_output", limit)
	}
	return output, nil
}

// Digest Operations

// SHA256DigestOp computes a SHA-256 digest as hex text
type SHA256DigestOp struct {
	BaseOperation
}

func (op *SHA256DigestOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	sum := sha256.Sum256(input)
	return hexcodec.Encode(sum[:]), nil
}

// BLAKE2bDigestOp computes a 256-bit BLAKE2b digest as hex text
type BLAKE2bDigestOp struct {
	BaseOperation
}

func (op *BLAKE2bDigestOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	sum := blake2b.Sum256(input)
	return hexcodec.Encode(sum[:]), nil
}

func init() {
	compress := &LZ4CompressOp{
		BaseOperation: BaseOperation{
			NameValue:        "lz4_compress",
			TypeValue:        OperationTypeCompress,
			DescriptionValue: "Compress data into an LZ4 frame",
		},
	}
	decompress := &LZ4DecompressOp{
		BaseOperation: BaseOperation{
			NameValue:        "lz4_decompress",
			TypeValue:        OperationTypeDecompress,
			DescriptionValue: "Decompress an LZ4 frame (param: max_output, default 64 MiB)",
		},
	}
	compress.ReverseOp = decompress
	decompress.ReverseOp = compress

	RegisterOperation(compress)
	RegisterOperation(decompress)
	RegisterOperation(&SHA256DigestOp{
		BaseOperation: BaseOperation{
			NameValue:        "sha256_digest",
			TypeValue:        OperationTypeDigest,
			DescriptionValue: "SHA-256 digest as hex (not reversible)",
		},
	})
	RegisterOperation(&BLAKE2bDigestOp{
		BaseOperation: BaseOperation{
			NameValue:        "blake2b_digest",
			TypeValue:        OperationTypeDigest,
			DescriptionValue: "BLAKE2b-256 digest as hex (not reversible)",
		},
	})
}
