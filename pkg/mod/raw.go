package mod

import (
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/ecerrors"
)

// rawMod is the arbitrary-precision backend, implemented directly on
// math/big.Int. Ported from pyecsca's RawMod (pyecsca/ec/mod.py).
type rawMod struct {
	x *big.Int
	n *big.Int
}

func newRaw(x, n *big.Int) *rawMod {
	v := new(big.Int).Mod(x, n)
	return &rawMod{x: v, n: n}
}

func (m *rawMod) X() *big.Int { return m.x }
func (m *rawMod) N() *big.Int { return m.n }

func (m *rawMod) Add(other Mod) (Mod, error) {
	n, err := sameModulus(m, other)
	if err != nil {
		return nil, err
	}
	return newRaw(new(big.Int).Add(m.x, other.X()), n), nil
}

func (m *rawMod) Sub(other Mod) (Mod, error) {
	n, err := sameModulus(m, other)
	if err != nil {
		return nil, err
	}
	return newRaw(new(big.Int).Sub(m.x, other.X()), n), nil
}

func (m *rawMod) Mul(other Mod) (Mod, error) {
	n, err := sameModulus(m, other)
	if err != nil {
		return nil, err
	}
	return newRaw(new(big.Int).Mul(m.x, other.X()), n), nil
}

func (m *rawMod) Div(other Mod) (Mod, error) {
	inv, err := other.Inverse()
	if err != nil {
		return nil, err
	}
	return m.Mul(inv)
}

func (m *rawMod) Neg() Mod {
	return newRaw(new(big.Int).Neg(m.x), m.n)
}

func (m *rawMod) Inverse() (Mod, error) {
	if m.x.Sign() == 0 {
		return dispatchNonInvertible(newRaw(big.NewInt(0), m.n))
	}
	inv := new(big.Int).ModInverse(m.x, m.n)
	if inv == nil {
		return dispatchNonInvertible(newRaw(big.NewInt(0), m.n))
	}
	return newRaw(inv, m.n), nil
}

func (m *rawMod) Pow(e *big.Int) (Mod, error) {
	if e.Sign() == 0 {
		return newRaw(big.NewInt(1), m.n), nil
	}
	if e.Sign() < 0 {
		inv, err := m.Inverse()
		if err != nil {
			return nil, err
		}
		return inv.Pow(new(big.Int).Neg(e))
	}
	return newRaw(new(big.Int).Exp(m.x, e, m.n), m.n), nil
}

// legendre computes the Legendre symbol of x mod an odd prime n, as
// x^((n-1)/2) mod n, folded into {-1,0,1}.
func (m *rawMod) legendre() (int, error) {
	if !m.n.ProbablyPrime(32) {
		return 0, fmt.Errorf("%w", ecerrors.NotImplementedForComposite)
	}
	if m.x.Sign() == 0 {
		return 0, nil
	}
	e := new(big.Int).Rsh(new(big.Int).Sub(m.n, big.NewInt(1)), 1)
	r := new(big.Int).Exp(m.x, e, m.n)
	if r.Cmp(big.NewInt(1)) == 0 {
		return 1, nil
	}
	return -1, nil
}

func (m *rawMod) IsResidue() (bool, error) {
	if !m.n.ProbablyPrime(32) {
		return false, fmt.Errorf("%w", ecerrors.NotImplementedForComposite)
	}
	if m.x.Sign() == 0 {
		return true, nil
	}
	if m.n.Cmp(big.NewInt(2)) == 0 {
		return true, nil
	}
	l, err := m.legendre()
	if err != nil {
		return false, err
	}
	return l == 1, nil
}

// Sqrt computes a square root via Tonelli-Shanks, per the spec.
func (m *rawMod) Sqrt() (Mod, error) {
	if !m.n.ProbablyPrime(32) {
		return nil, fmt.Errorf("%w", ecerrors.NotImplementedForComposite)
	}
	if m.x.Sign() == 0 {
		return newRaw(big.NewInt(0), m.n), nil
	}
	isResidue, err := m.IsResidue()
	if err != nil {
		return nil, err
	}
	if !isResidue {
		return dispatchNonResidue(newRaw(big.NewInt(0), m.n))
	}
	one := big.NewInt(1)
	three := big.NewInt(3)
	four := big.NewInt(4)
	if new(big.Int).Mod(m.n, four).Cmp(three) == 0 {
		e := new(big.Int).Rsh(new(big.Int).Add(m.n, one), 2)
		return m.Pow(e)
	}

	q := new(big.Int).Sub(m.n, one)
	s := 0
	two := big.NewInt(2)
	for new(big.Int).Mod(q, two).Sign() == 0 {
		q.Rsh(q, 1)
		s++
	}

	z := big.NewInt(2)
	for {
		zm := newRaw(z, m.n)
		res, err := zm.IsResidue()
		if err != nil {
			return nil, err
		}
		if !res {
			break
		}
		z.Add(z, one)
	}

	mm := s
	c, err := newRaw(z, m.n).Pow(q)
	if err != nil {
		return nil, err
	}
	t, err := m.Pow(q)
	if err != nil {
		return nil, err
	}
	rExp := new(big.Int).Rsh(new(big.Int).Add(q, one), 1)
	r, err := m.Pow(rExp)
	if err != nil {
		return nil, err
	}

	for t.(*rawMod).x.Cmp(one) != 0 {
		i := 1
		for {
			exp := new(big.Int).Lsh(one, uint(i))
			tt, err := t.Pow(exp)
			if err != nil {
				return nil, err
			}
			if tt.(*rawMod).x.Cmp(one) == 0 {
				break
			}
			i++
		}
		twoExp := mm - (i + 1)
		bExp := new(big.Int).Lsh(one, uint(twoExp))
		b, err := c.Pow(bExp)
		if err != nil {
			return nil, err
		}
		mm = i
		c2, err := b.Pow(two)
		if err != nil {
			return nil, err
		}
		c = c2
		tv, err := t.Mul(c)
		if err != nil {
			return nil, err
		}
		t = tv
		rv, err := r.Mul(b)
		if err != nil {
			return nil, err
		}
		r = rv
	}
	return r, nil
}

// IsCubicResidue reports whether m is a cube in Z/nZ, via
// Adleman-Manders-Miller (only implemented for prime n).
func (m *rawMod) IsCubicResidue() (bool, error) {
	if !m.n.ProbablyPrime(32) {
		return false, fmt.Errorf("%w", ecerrors.NotImplementedForComposite)
	}
	if m.x.Sign() == 0 {
		return true, nil
	}
	three := big.NewInt(3)
	nMinus1 := new(big.Int).Sub(m.n, big.NewInt(1))
	if new(big.Int).Mod(nMinus1, three).Sign() != 0 {
		// gcd(3, n-1) == 1: every element is a cubic residue.
		return true, nil
	}
	e := new(big.Int).Div(nMinus1, three)
	res, err := m.Pow(e)
	if err != nil {
		return false, err
	}
	return res.(*rawMod).x.Cmp(big.NewInt(1)) == 0, nil
}

// CubeRoot computes a cube root via Adleman-Manders-Miller.
func (m *rawMod) CubeRoot() (Mod, error) {
	if !m.n.ProbablyPrime(32) {
		return nil, fmt.Errorf("%w", ecerrors.NotImplementedForComposite)
	}
	if m.x.Sign() == 0 {
		return newRaw(big.NewInt(0), m.n), nil
	}
	isCubic, err := m.IsCubicResidue()
	if err != nil {
		return nil, err
	}
	if !isCubic {
		return dispatchNonResidue(newRaw(big.NewInt(0), m.n))
	}
	one := big.NewInt(1)
	three := big.NewInt(3)
	nMinus1 := new(big.Int).Sub(m.n, one)
	if new(big.Int).Mod(nMinus1, three).Sign() != 0 {
		// gcd(3,n-1)=1: unique cube root is x^(inverse of 3 mod n-1).
		threeInv := new(big.Int).ModInverse(three, nMinus1)
		return m.Pow(threeInv)
	}
	// gcd(3,n-1)=3: write n-1 = 3^s * q with q coprime to 3.
	q := new(big.Int).Set(nMinus1)
	s := 0
	for new(big.Int).Mod(q, three).Sign() == 0 {
		q.Div(q, three)
		s++
	}
	// Find a cubic non-residue z.
	z := big.NewInt(2)
	for {
		zm := newRaw(z, m.n)
		isRes, err := zm.IsCubicResidue()
		if err != nil {
			return nil, err
		}
		if !isRes {
			break
		}
		z.Add(z, one)
	}
	qPlus1Over3 := new(big.Int).Div(new(big.Int).Add(q, one), three)
	c, err := newRaw(z, m.n).Pow(q)
	if err != nil {
		return nil, err
	}
	t, err := m.Pow(q)
	if err != nil {
		return nil, err
	}
	r, err := m.Pow(qPlus1Over3)
	if err != nil {
		return nil, err
	}
	h := s
	for t.(*rawMod).x.Cmp(one) != 0 {
		i := 0
		tt := t
		for tt.(*rawMod).x.Cmp(one) != 0 {
			tt, err = tt.Pow(three)
			if err != nil {
				return nil, err
			}
			i++
		}
		cExp := new(big.Int).Exp(three, big.NewInt(int64(h-i-1)), nil)
		b, err := c.Pow(cExp)
		if err != nil {
			return nil, err
		}
		b3, err := b.Pow(three)
		if err != nil {
			return nil, err
		}
		c = b3
		rv, err := r.Mul(b)
		if err != nil {
			return nil, err
		}
		r = rv
		tv, err := t.Mul(c)
		if err != nil {
			return nil, err
		}
		t = tv
		h = i
	}
	return r, nil
}

func (m *rawMod) BitLen() (int, error) {
	return m.x.BitLen(), nil
}

func (m *rawMod) Bytes() ([]byte, error) {
	out := make([]byte, bytesForModulus(m.n))
	b := m.x.Bytes()
	copy(out[len(out)-len(b):], b)
	return out, nil
}

func (m *rawMod) Equal(other Mod) bool {
	o, ok := other.(*rawMod)
	if !ok {
		return false
	}
	return m.x.Cmp(o.x) == 0 && m.n.Cmp(o.n) == 0
}

func (m *rawMod) String() string {
	return m.x.String()
}
