package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
)

// Ladder is the Montgomery ladder multiplier, using a single three-input,
// two-output "ladd" formula per bit — constant shape regardless of the
// bit's value, the classic timing-resistant scalar multiplication.
// Ported from pyecsca's LadderMultiplier (pyecsca/ec/mult/ladder.py).
type Ladder struct {
	*Multiplier
	Complete bool
}

func NewLadder(ladd, dbl, scl *formula.Formula, complete bool) (*Ladder, error) {
	base, err := NewMultiplier(dbl == nil, ladd, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &Ladder{Multiplier: base, Complete: complete}, nil
}

func (l *Ladder) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := l.requireInit(); err != nil {
		return nil, err
	}
	scalar = l.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return l.params.Curve.Neutral, nil
	}
	q := l.point
	var p0, p1 *curve.Point
	var top int
	var err error
	if l.Complete {
		p0 = l.params.Curve.Neutral
		p1 = l.point
		top = l.params.Order.BitLen() - 1
	} else {
		p0 = q
		p1, err = l.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		top = scalar.BitLen() - 2
	}
	for i := top; i >= 0; i-- {
		if scalar.Bit(i) == 0 {
			p0, p1, err = l.ladd(ctx, q, p0, p1)
		} else {
			p1, p0, err = l.ladd(ctx, q, p1, p0)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, ok := l.Formulas["scl"]; ok {
		p0, err = l.scl(ctx, p0)
		if err != nil {
			return nil, err
		}
	}
	return p0, nil
}

// SimpleLadder is the Montgomery-ladder control flow expressed with plain
// add/dbl formulas instead of a dedicated ladder formula. Ported from
// pyecsca's SimpleLadderMultiplier (pyecsca/ec/mult/ladder.py).
type SimpleLadder struct {
	*Multiplier
	Complete bool
}

func NewSimpleLadder(add, dbl, scl *formula.Formula, complete bool) (*SimpleLadder, error) {
	base, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &SimpleLadder{Multiplier: base, Complete: complete}, nil
}

func (l *SimpleLadder) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := l.requireInit(); err != nil {
		return nil, err
	}
	scalar = l.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return l.params.Curve.Neutral, nil
	}
	var top int
	if l.Complete {
		top = l.params.Order.BitLen() - 1
	} else {
		top = scalar.BitLen() - 1
	}
	p0 := l.params.Curve.Neutral
	p1 := l.point
	var err error
	for i := top; i >= 0; i-- {
		if scalar.Bit(i) == 0 {
			p1, err = l.add(ctx, p0, p1)
			if err != nil {
				return nil, err
			}
			p0, err = l.dbl(ctx, p0)
		} else {
			p0, err = l.add(ctx, p0, p1)
			if err != nil {
				return nil, err
			}
			p1, err = l.dbl(ctx, p1)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, ok := l.Formulas["scl"]; ok {
		p0, err = l.scl(ctx, p0)
		if err != nil {
			return nil, err
		}
	}
	return p0, nil
}

// DifferentialLadder is the Montgomery ladder expressed with a
// differential-addition formula (one that needs the difference of its two
// inputs, e.g. Montgomery-curve x-only arithmetic) plus a plain doubling
// formula, instead of a dedicated ladder formula or a full addition.
// Ported from pyecsca's DifferentialLadderMultiplier
// (pyecsca/ec/mult/ladder.py).
type DifferentialLadder struct {
	*Multiplier
	Complete bool
}

func NewDifferentialLadder(dadd, dbl, scl *formula.Formula, complete bool) (*DifferentialLadder, error) {
	base, err := NewMultiplier(true, dadd, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &DifferentialLadder{Multiplier: base, Complete: complete}, nil
}

func (l *DifferentialLadder) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := l.requireInit(); err != nil {
		return nil, err
	}
	scalar = l.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return l.params.Curve.Neutral, nil
	}
	var top int
	if l.Complete {
		top = l.params.Order.BitLen() - 1
	} else {
		top = scalar.BitLen() - 1
	}
	q := l.point
	p0 := l.params.Curve.Neutral
	p1 := q
	var err error
	for i := top; i >= 0; i-- {
		if scalar.Bit(i) == 0 {
			p1, err = l.dadd(ctx, q, p0, p1)
			if err != nil {
				return nil, err
			}
			p0, err = l.dbl(ctx, p0)
		} else {
			p0, err = l.dadd(ctx, q, p0, p1)
			if err != nil {
				return nil, err
			}
			p1, err = l.dbl(ctx, p1)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, ok := l.Formulas["scl"]; ok {
		p0, err = l.scl(ctx, p0)
		if err != nil {
			return nil, err
		}
	}
	return p0, nil
}
