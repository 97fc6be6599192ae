// Package dh implements finite-field Diffie-Hellman key agreement.
package dh

import (
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// nistPrime is the 1536-bit MODP group prime from RFC 3526.
const nistPrime = `ffffffffffffffffc90fdaa22168c234c4c6628b80dc1cd129024
e088a67cc74020bbea63b139b22514a08798e3404ddef9519b3cd
3a431b302b0a6df25f14374fe1356d6d51c245e485b576625e7ec
6f44c42e9a637ed6b0bff5cb6f406b7edee386bfb5a899fa5ae9f
24117c4b1fe649286651ece45b3dc2007cb8a163bf0598da48361
c55d39a69163fa8fd24cf5f83655d23dca3ad961c62f356208552
bb9ed529077096966d670c354e4abc9804f1746c08ca237327fff
fffffffffffff`

var (
	ErrParamsMismatch = errors.New("dh: peer uses different group parameters")
	ErrInvalidPublic  = errors.New("dh: peer public value out of range")
)

// Params are the group modulus P and generator G.
type Params struct {
	P *big.Int
	G *big.Int
}

// SmallParams returns the toy group p=37, g=5.
func SmallParams() Params {
	return Params{P: big.NewInt(37), G: big.NewInt(5)}
}

// NISTParams returns the 1536-bit MODP group with generator 2.
func NISTParams() Params {
	p, ok := new(big.Int).SetString(strings.ReplaceAll(nistPrime, "\n", ""), 16)
	if !ok {
		panic("dh: invalid built-in prime")
	}
	return Params{P: p, G: big.NewInt(2)}
}

// Validate checks that the parameters describe a usable group.
func (p Params) Validate() error {
	if p.P == nil || p.G == nil {
		return errors.New("dh: missing modulus or generator")
	}
	if p.P.Cmp(big.NewInt(3)) < 0 {
		return fmt.Errorf("dh: modulus %s too small", p.P)
	}
	if p.G.Sign() <= 0 || p.G.Cmp(p.P) >= 0 {
		return fmt.Errorf("dh: generator %s outside (0, p)", p.G)
	}
	return nil
}

func (p Params) equal(o Params) bool {
	return p.P.Cmp(o.P) == 0 && p.G.Cmp(o.G) == 0
}

// PublicKey is g^x mod p.
type PublicKey struct {
	Params Params
	Y      *big.Int
}

// PrivateKey holds the secret exponent alongside its public value.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

// GenerateKey draws a secret exponent in [1, p-1) from rand.
func GenerateKey(rand io.Reader, params Params) (*PrivateKey, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	limit := new(big.Int).Sub(params.P, big.NewInt(2))
	x, err := cryptorand.Int(rand, limit)
	if err != nil {
		return nil, fmt.Errorf("dh: generate exponent: %w", err)
	}
	x.Add(x, big.NewInt(1))
	y := new(big.Int).Exp(params.G, x, params.P)
	return &PrivateKey{PublicKey: PublicKey{Params: params, Y: y}, X: x}, nil
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	return &k.PublicKey
}

// SharedSecret computes peer^x mod p as big-endian bytes.
func (k *PrivateKey) SharedSecret(peer *PublicKey) ([]byte, error) {
	if peer == nil || peer.Y == nil {
		return nil, ErrInvalidPublic
	}
	if !k.Params.equal(peer.Params) {
		return nil, ErrParamsMismatch
	}
	if peer.Y.Sign() <= 0 || peer.Y.Cmp(k.Params.P) >= 0 {
		return nil, ErrInvalidPublic
	}
	return new(big.Int).Exp(peer.Y, k.X, k.Params.P).Bytes(), nil
}
