// Package mod implements the prime-field element described in the spec:
// an immutable pair (x, n) with 0 <= x < n, arithmetic modulo n, and a
// process-wide choice of concrete backend. Ported from the Mod/RawMod/
// GMPMod hierarchy of pyecsca's pyecsca/ec/mod.py, generalized to Go's
// static-dispatch idiom per the spec's design notes: Mod is an interface,
// and the concrete backend is resolved once, at construction time, rather
// than per-operation.
package mod

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/ecsim/ecsim/internal/ecslog"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"go.uber.org/zap"
)

// Mod is an element of Z/nZ (or a symbolic stand-in for one). All
// arithmetic methods return a new value; Mod values are immutable once
// constructed.
type Mod interface {
	// X returns the representative integer in [0,n), or nil for symbolic/Undefined.
	X() *big.Int
	// N returns the modulus.
	N() *big.Int

	Add(other Mod) (Mod, error)
	Sub(other Mod) (Mod, error)
	Mul(other Mod) (Mod, error)
	Div(other Mod) (Mod, error)
	Neg() Mod
	Inverse() (Mod, error)
	Pow(e *big.Int) (Mod, error)
	Sqrt() (Mod, error)
	IsResidue() (bool, error)
	CubeRoot() (Mod, error)
	IsCubicResidue() (bool, error)

	BitLen() (int, error)
	Bytes() ([]byte, error)
	Equal(other Mod) bool
	String() string
}

// sameModulus checks that a and b share a modulus and returns it, or
// ecerrors.ModulusMismatch.
func sameModulus(a, b Mod) (*big.Int, error) {
	if a.N().Cmp(b.N()) != 0 {
		return nil, fmt.Errorf("%w: %s != %s", ecerrors.ModulusMismatch, a.N(), b.N())
	}
	return a.N(), nil
}

// New constructs a Mod for x mod n using the process-wide configured
// backend, falling back to the raw (math/big) backend if the selected one
// cannot represent n (e.g. the fixed-width backend on a modulus wider than
// 256 bits).
func New(x, n *big.Int) (Mod, error) {
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ecerrors.BadConfiguration)
	}
	switch ecsconfig.Current().ModImplementation {
	case ecsconfig.ModFixed:
		if m, ok := newFixed(x, n); ok {
			return m, nil
		}
		ecslog.With("mod").Warn("fixed backend cannot represent modulus, falling back to raw",
			zap.Int("bitlen", n.BitLen()))
		return newRaw(x, n), nil
	case ecsconfig.ModSymbolic:
		return newSymbolicLiteral(x, n), nil
	default:
		return newRaw(x, n), nil
	}
}

// MustNew is like New but panics on error; useful for literal constants.
func MustNew(x, n *big.Int) Mod {
	m, err := New(x, n)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt64 builds a Mod from plain integers, implementing the spec's
// "upcast rule": an integer literal is reduced into the modulus class
// indicated by n.
func FromInt64(x int64, n *big.Int) (Mod, error) {
	return New(big.NewInt(x), n)
}

// Random draws a Mod uniformly from [0,n) using a cryptographically secure
// source, implementing the RandomModAction of the spec.
func Random(n *big.Int) (Mod, error) {
	x, err := rand.Int(rand.Reader, n)
	if err != nil {
		return nil, fmt.Errorf("random sampling: %w", err)
	}
	return New(x, n)
}

// bytesForModulus returns the big-endian byte length needed to encode any
// element of Z/nZ: ceil(bitlen(n)/8).
func bytesForModulus(n *big.Int) int {
	return (n.BitLen() + 7) / 8
}
