package cipher

import (
	"context"
	"fmt"

	"github.com/RowanDark/xorcist/internal/keyfinder"
	"github.com/RowanDark/xorcist/internal/xorop"
)

// XOR Operations

// FixedXOROp XORs hex text input against an equal-length hex key and emits
// hex text. Applying it twice with the same key restores the input.
type FixedXOROp struct {
	BaseOperation
}

func (op *FixedXOROp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := paramString(params, "key")
	if err != nil {
		return nil, err
	}
	out, err := xorop.Compute(string(cleanHex(input)), string(cleanHex([]byte(key))))
	if err != nil {
		return nil, fmt.Errorf("fixed xor failed: %w", err)
	}
	return []byte(out), nil
}

// SingleByteXOROp XORs every input byte with one key byte
type SingleByteXOROp struct {
	BaseOperation
}

func (op *SingleByteXOROp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := paramByte(params, "key")
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(input))
	xorop.SingleByte(out, input, key)
	return out, nil
}

// RepeatingXOROp XORs input against a repeating multi-byte key
type RepeatingXOROp struct {
	BaseOperation
}

func (op *RepeatingXOROp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := paramString(params, "key")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w %q: cannot be empty", ErrInvalidParameter, "key")
	}
	return xorop.Repeating(input, []byte(key)), nil
}

// Crack Operations

// CrackSingleByteOp recovers the plaintext of hex ciphertext encrypted with
// a single-byte XOR key
type CrackSingleByteOp struct {
	BaseOperation
}

func (op *CrackSingleByteOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	workers, err := paramInt(params, "workers", 0)
	if err != nil {
		return nil, err
	}
	finder := &keyfinder.Finder{Workers: workers}
	cand, err := finder.Find(ctx, string(cleanHex(input)))
	if err != nil {
		return nil, fmt.Errorf("single-byte key search failed: %w", err)
	}
	return cand.Plaintext, nil
}

func init() {
	fixed := &FixedXOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_fixed",
			TypeValue:        OperationTypeXOR,
			DescriptionValue: "XOR hex text against an equal-length hex key (param: key)",
		},
	}
	fixed.ReverseOp = fixed

	single := &SingleByteXOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_single",
			TypeValue:        OperationTypeXOR,
			DescriptionValue: "XOR every byte with a single key byte (param: key, 0-255)",
		},
	}
	single.ReverseOp = single

	repeating := &RepeatingXOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_repeating",
			TypeValue:        OperationTypeXOR,
			DescriptionValue: "XOR with a repeating key string (param: key)",
		},
	}
	repeating.ReverseOp = repeating

	crack := &CrackSingleByteOp{
		BaseOperation: BaseOperation{
			NameValue:        "crack_single_byte",
			TypeValue:        OperationTypeCrack,
			DescriptionValue: "Recover plaintext from single-byte XOR hex ciphertext by letter frequency",
		},
	}

	RegisterOperation(fixed)
	RegisterOperation(single)
	RegisterOperation(repeating)
	RegisterOperation(crack)
}
