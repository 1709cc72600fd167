package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
)

// DoubleAndAdd is the classic double-and-add multiplier, scanning the
// scalar either left-to-right or right-to-left. Ported from pyecsca's
// DoubleAndAddMultiplier/LTRMultiplier/RTLMultiplier
// (pyecsca/ec/mult/binary.py).
type DoubleAndAdd struct {
	*Multiplier
	Direction         Direction
	AccumulationOrder AccumulationOrder
	Always            bool // double-and-add-always: dummy accumulate on zero bits
	Complete          bool // scan from the full order's bit length rather than the scalar's
}

// NewLTR builds a left-to-right double-and-add multiplier.
func NewLTR(add, dbl, scl *formula.Formula, always, complete bool, order AccumulationOrder) (*DoubleAndAdd, error) {
	base, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &DoubleAndAdd{Multiplier: base, Direction: LTR, AccumulationOrder: order, Always: always, Complete: complete}, nil
}

// NewRTL builds a right-to-left double-and-add multiplier.
func NewRTL(add, dbl, scl *formula.Formula, always, complete bool, order AccumulationOrder) (*DoubleAndAdd, error) {
	base, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &DoubleAndAdd{Multiplier: base, Direction: RTL, AccumulationOrder: order, Always: always, Complete: complete}, nil
}

func (d *DoubleAndAdd) ltr(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	var q, r *curve.Point
	var top int
	if d.Complete {
		q = d.point
		r = d.params.Curve.Neutral
		top = d.params.Order.BitLen() - 1
	} else {
		q = d.point
		r = d.point
		top = scalar.BitLen() - 2
	}
	for i := top; i >= 0; i-- {
		var err error
		r, err = d.dbl(ctx, r)
		if err != nil {
			return nil, err
		}
		if scalar.Bit(i) != 0 {
			r, err = d.accumulate(ctx, d.AccumulationOrder, r, q)
			if err != nil {
				return nil, err
			}
		} else if d.Always {
			if _, err := d.accumulate(ctx, d.AccumulationOrder, r, q); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (d *DoubleAndAdd) rtl(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	q := d.point
	r := d.params.Curve.Neutral
	var top int
	if d.Complete {
		top = d.params.Order.BitLen()
	} else {
		top = scalar.BitLen()
	}
	s := new(big.Int).Set(scalar)
	for i := 0; i < top; i++ {
		var err error
		if s.Bit(0) != 0 {
			r, err = d.accumulate(ctx, d.AccumulationOrder, r, q)
			if err != nil {
				return nil, err
			}
		} else if d.Always {
			if _, err := d.accumulate(ctx, d.AccumulationOrder, r, q); err != nil {
				return nil, err
			}
		}
		q, err = d.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		s.Rsh(s, 1)
	}
	return r, nil
}

// Multiply computes scalar*point using the bound add/dbl(/scl) formulas.
// Init must have been called first.
func (d *DoubleAndAdd) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := d.requireInit(); err != nil {
		return nil, err
	}
	scalar = d.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return d.params.Curve.Neutral, nil
	}
	var r *curve.Point
	var err error
	if d.Direction == LTR {
		r, err = d.ltr(ctx, scalar)
	} else {
		r, err = d.rtl(ctx, scalar)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := d.Formulas["scl"]; ok {
		r, err = d.scl(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}
