package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
)

// Coron is Coron's double-and-add-always multiplier: every bit does a
// double and an add, the add's destination chosen by the scalar bit, so
// an SPA trace sees the identical add+dbl pattern regardless of the
// scalar. Ported from pyecsca's CoronMultiplier (pyecsca/ec/mult/binary.py).
type Coron struct {
	*Multiplier
}

func NewCoron(add, dbl, scl *formula.Formula) (*Coron, error) {
	base, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &Coron{Multiplier: base}, nil
}

func (c *Coron) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := c.requireInit(); err != nil {
		return nil, err
	}
	scalar = c.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return c.params.Curve.Neutral, nil
	}
	q := c.point
	p0 := q
	for i := scalar.BitLen() - 2; i >= 0; i-- {
		var err error
		p0, err = c.dbl(ctx, p0)
		if err != nil {
			return nil, err
		}
		p1, err := c.add(ctx, p0, q)
		if err != nil {
			return nil, err
		}
		if scalar.Bit(i) != 0 {
			p0 = p1
		}
	}
	if _, ok := c.Formulas["scl"]; ok {
		var err error
		p0, err = c.scl(ctx, p0)
		if err != nil {
			return nil, err
		}
	}
	return p0, nil
}
