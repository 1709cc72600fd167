package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/trace"
)

// FullPrecomp precomputes every power-of-two multiple [2^i]P up to the
// full order's bit length, so its multiply loop does no doubling at all —
// the fixed-base extreme of the precomputation/runtime tradeoff. See page
// 104 of [GECC]. Ported from pyecsca's FullPrecompMultiplier
// (pyecsca/ec/mult/fixed.py).
type FullPrecomp struct {
	*Multiplier
	Direction         Direction
	AccumulationOrder AccumulationOrder
	Always            bool
	Complete          bool

	points map[int]*curve.Point
}

func NewFullPrecomp(add, dbl, scl *formula.Formula, direction Direction, order AccumulationOrder, always, complete bool) (*FullPrecomp, error) {
	m, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &FullPrecomp{Multiplier: m, Direction: direction, AccumulationOrder: order, Always: always, Complete: complete}, nil
}

func (f *FullPrecomp) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := f.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	top := params.Order.BitLen()
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	f.points = map[int]*curve.Point{}
	current := point
	for i := 0; i <= top; i++ {
		f.points[i] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
		if i != top {
			var err error
			current, err = f.dbl(ctx, current)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FullPrecomp) ltr(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	var top int
	if f.Complete {
		top = f.params.Order.BitLen() - 1
	} else {
		top = scalar.BitLen() - 1
	}
	bits := scalarBits(scalar, top+1)
	r := f.params.Curve.Neutral
	for i := top; i >= 0; i-- {
		var err error
		if bits.Test(uint(i)) {
			r, err = f.accumulate(ctx, f.AccumulationOrder, r, f.points[i])
		} else if f.Always {
			_, err = f.accumulate(ctx, f.AccumulationOrder, r, f.points[i])
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (f *FullPrecomp) rtl(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	r := f.params.Curve.Neutral
	var top int
	if f.Complete {
		top = f.params.Order.BitLen()
	} else {
		top = scalar.BitLen()
	}
	s := new(big.Int).Set(scalar)
	for i := 0; i < top; i++ {
		var err error
		if s.Bit(0) != 0 {
			r, err = f.accumulate(ctx, f.AccumulationOrder, r, f.points[i])
		} else if f.Always {
			_, err = f.accumulate(ctx, f.AccumulationOrder, r, f.points[i])
		}
		if err != nil {
			return nil, err
		}
		s.Rsh(s, 1)
	}
	return r, nil
}

func (f *FullPrecomp) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := f.requireInit(); err != nil {
		return nil, err
	}
	scalar = f.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return f.params.Curve.Neutral, nil
	}
	var r *curve.Point
	var err error
	if f.Direction == LTR {
		r, err = f.ltr(ctx, scalar)
	} else {
		r, err = f.rtl(ctx, scalar)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := f.Formulas["scl"]; ok {
		r, err = f.scl(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}
