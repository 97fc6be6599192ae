// Package cipher exposes the xorcist primitives as named, chainable byte
// operations.
//
// # Overview
//
// Every primitive (hex codec, Base64 encoder, XOR variants, the single-byte
// key search) is wrapped as an Operation and registered by name, so that
// the CLI, the gRPC service and saved recipes all drive the same code.
//
// # Quick Start
//
//	op, _ := cipher.GetOperation("hex_decode")
//	raw, _ := op.Execute(context.Background(), []byte("49276d"), nil)
//	// raw: []byte("I'm")
//
// # Transformation Pipelines
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "xor_single", Parameters: map[string]interface{}{"key": 88}},
//	        {Name: "hex_encode"},
//	    },
//	    Reversible: true,
//	}
//
//	encoded, _ := pipeline.Execute(ctx, []byte("attack at dawn"))
//	reversed, _ := pipeline.Reverse()
//	plain, _ := reversed.Execute(ctx, encoded)
//
// # Recipes
//
// A RecipeManager starts with the builtin recipes (hex_to_base64,
// fixed_xor_challenge, crack_hex) and persists user recipes as JSON files.
//
// # Available Operations
//
// Encoding:
//   - hex_encode/hex_decode - lowercase hexadecimal
//   - base64_encode - padded URL-safe Base64, no decoder
//
// XOR:
//   - xor_fixed - hex text against an equal-length hex key
//   - xor_single - every byte against one key byte
//   - xor_repeating - against a repeating key string
//   - crack_single_byte - recover plaintext under an unknown one-byte key
//
// Compression and digests:
//   - lz4_compress/lz4_decompress
//   - sha256_digest, blake2b_digest - hex output, not reversible
//
// # Thread Safety
//
// Registries and RecipeManager lock internally. Operations are stateless.
package cipher
