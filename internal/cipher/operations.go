package cipher

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RowanDark/xorcist/internal/b64"
	"github.com/RowanDark/xorcist/internal/hexcodec"
)

// Hex Operations

// HexEncodeOp encodes bytes as lowercase hex text
type HexEncodeOp struct {
	BaseOperation
}

func (op *HexEncodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	return hexcodec.Encode(input), nil
}

// HexDecodeOp decodes lowercase hex text to bytes
type HexDecodeOp struct {
	BaseOperation
}

func (op *HexDecodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	decoded, err := hexcodec.Decode(cleanHex(input))
	if err != nil {
		return nil, fmt.Errorf("hex decode failed: %w", err)
	}
	return decoded, nil
}

// cleanHex drops a leading 0x and any whitespace. Digits are left untouched
// so uppercase input is still rejected by the decoder.
func cleanHex(input []byte) []byte {
	s := strings.TrimSpace(string(input))
	s = strings.TrimPrefix(s, "0x")
	s = strings.Join(strings.Fields(s), "")
	return []byte(s)
}

// Base64 Operations

// Base64EncodeOp encodes data with the URL-safe alphabet and '=' padding.
// There is no decoder, so it has no reverse.
type Base64EncodeOp struct {
	BaseOperation
}

func (op *Base64EncodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	return []byte(b64.Encode(input)), nil
}

// parameter helpers

// paramByte reads params[name] as a value in 0..255. Strings may be decimal
// or 0x-prefixed hex; numbers arrive as float64 from JSON and int from YAML.
func paramByte(params map[string]interface{}, name string) (byte, error) {
	raw, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("%w %q: missing", ErrInvalidParameter, name)
	}
	var v int64
	switch val := raw.(type) {
	case int:
		v = int64(val)
	case int64:
		v = val
	case uint8:
		v = int64(val)
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%w %q: must be an integer, got %v", ErrInvalidParameter, name, val)
		}
		v = int64(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%w %q: %v", ErrInvalidParameter, name, err)
		}
		v = parsed
	default:
		return 0, fmt.Errorf("%w %q: unsupported type %T", ErrInvalidParameter, name, raw)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w %q: out of byte range: %d", ErrInvalidParameter, name, v)
	}
	return byte(v), nil
}

// paramString reads params[name] as a string.
func paramString(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok {
		return "", fmt.Errorf("%w %q: missing", ErrInvalidParameter, name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w %q: must be a string, got %T", ErrInvalidParameter, name, raw)
	}
	return s, nil
}

// paramInt reads an optional integer parameter, returning def when absent.
func paramInt(params map[string]interface{}, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok {
		return def, nil
	}
	switch val := raw.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%w %q: must be an integer, got %v", ErrInvalidParameter, name, val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%w %q: %v", ErrInvalidParameter, name, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w %q: unsupported type %T", ErrInvalidParameter, name, raw)
}

// init registers the codec operations
func init() {
	hexEncode := &HexEncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode bytes as lowercase hexadecimal text",
		},
	}
	hexDecode := &HexDecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode lowercase hexadecimal text to bytes",
		},
	}
	hexEncode.ReverseOp = hexDecode
	hexDecode.ReverseOp = hexEncode

	base64Encode := &Base64EncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "base64_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode data as padded URL-safe Base64 (no decoder)",
		},
	}

	RegisterOperation(hexEncode)
	RegisterOperation(hexDecode)
	RegisterOperation(base64Encode)
}
