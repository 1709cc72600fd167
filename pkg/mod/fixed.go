package mod

import (
	"math/big"

	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/holiman/uint256"
)

// fixedMod is the fixed-width backend for moduli that fit in 256 bits —
// the common case for named curves (secp256k1, curve25519, the NIST
// P-curves). Storage is native uint256.Int; addition, multiplication and
// negation use uint256 operations directly, while the remaining
// operations go through math/big.
type fixedMod struct {
	x *uint256.Int
	n *uint256.Int
	// nBig caches the modulus as a big.Int for the math/big paths: see rawMod.
	nBig *big.Int
}

// newFixed attempts to build a fixedMod for x mod n, returning ok=false if
// n does not fit in 256 bits.
func newFixed(x, n *big.Int) (*fixedMod, bool) {
	if n.BitLen() > 256 {
		return nil, false
	}
	reduced := new(big.Int).Mod(x, n)
	ux, overflow1 := uint256.FromBig(reduced)
	un, overflow2 := uint256.FromBig(n)
	if overflow1 || overflow2 {
		return nil, false
	}
	return &fixedMod{x: ux, n: un, nBig: n}, true
}

func (m *fixedMod) toRaw() *rawMod {
	return &rawMod{x: m.x.ToBig(), n: m.nBig}
}

func fromRawResult(r Mod, ok bool) (Mod, bool) {
	rm, isRaw := r.(*rawMod)
	if !ok || !isRaw {
		return r, false
	}
	fm, fits := newFixed(rm.x, rm.n)
	if !fits {
		return r, false
	}
	return fm, true
}

func (m *fixedMod) X() *big.Int { return m.x.ToBig() }
func (m *fixedMod) N() *big.Int { return m.nBig }

func (m *fixedMod) Add(other Mod) (Mod, error) {
	o, err := asFixed(other)
	if err != nil {
		return nil, err
	}
	res := new(uint256.Int).AddMod(m.x, o.x, m.n)
	return &fixedMod{x: res, n: m.n, nBig: m.nBig}, nil
}

func (m *fixedMod) Sub(other Mod) (Mod, error) {
	o, err := asFixed(other)
	if err != nil {
		return nil, err
	}
	r, rerr := m.toRaw().Sub(o.toRaw())
	if rerr != nil {
		return nil, rerr
	}
	if fm, ok := fromRawResult(r, true); ok {
		return fm, nil
	}
	return r, nil
}

func (m *fixedMod) Mul(other Mod) (Mod, error) {
	o, err := asFixed(other)
	if err != nil {
		return nil, err
	}
	res := new(uint256.Int).MulMod(m.x, o.x, m.n)
	return &fixedMod{x: res, n: m.n, nBig: m.nBig}, nil
}

func (m *fixedMod) Div(other Mod) (Mod, error) {
	inv, err := other.Inverse()
	if err != nil {
		return nil, err
	}
	return m.Mul(inv)
}

func (m *fixedMod) Neg() Mod {
	res := new(uint256.Int).Sub(m.n, m.x)
	if m.x.IsZero() {
		res = uint256.NewInt(0)
	}
	return &fixedMod{x: res, n: m.n, nBig: m.nBig}
}

func (m *fixedMod) Inverse() (Mod, error) {
	r, err := m.toRaw().Inverse()
	if err != nil {
		return nil, err
	}
	if fm, ok := fromRawResult(r, true); ok {
		return fm, nil
	}
	return r, nil
}

func (m *fixedMod) Pow(e *big.Int) (Mod, error) {
	r, err := m.toRaw().Pow(e)
	if err != nil {
		return nil, err
	}
	if fm, ok := fromRawResult(r, true); ok {
		return fm, nil
	}
	return r, nil
}

func (m *fixedMod) Sqrt() (Mod, error) {
	r, err := m.toRaw().Sqrt()
	if err != nil {
		return nil, err
	}
	if fm, ok := fromRawResult(r, true); ok {
		return fm, nil
	}
	return r, nil
}

func (m *fixedMod) IsResidue() (bool, error) {
	return m.toRaw().IsResidue()
}

func (m *fixedMod) CubeRoot() (Mod, error) {
	r, err := m.toRaw().CubeRoot()
	if err != nil {
		return nil, err
	}
	if fm, ok := fromRawResult(r, true); ok {
		return fm, nil
	}
	return r, nil
}

func (m *fixedMod) IsCubicResidue() (bool, error) {
	return m.toRaw().IsCubicResidue()
}

func (m *fixedMod) BitLen() (int, error) {
	return m.x.BitLen(), nil
}

func (m *fixedMod) Bytes() ([]byte, error) {
	full := m.x.Bytes32()
	n := bytesForModulus(m.nBig)
	out := make([]byte, n)
	copy(out, full[32-n:])
	return out, nil
}

func (m *fixedMod) Equal(other Mod) bool {
	o, ok := other.(*fixedMod)
	if !ok {
		return false
	}
	return m.x.Eq(o.x) && m.n.Eq(o.n)
}

func (m *fixedMod) String() string {
	return m.x.ToBig().String()
}

func asFixed(other Mod) (*fixedMod, error) {
	o, ok := other.(*fixedMod)
	if ok {
		return o, nil
	}
	// Upcast: reduce a raw/symbolic operand of the same modulus into fixed form.
	fm, fits := newFixed(other.X(), other.N())
	if !fits {
		return nil, ecerrors.ModulusMismatch
	}
	return fm, nil
}
