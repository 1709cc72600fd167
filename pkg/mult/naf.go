package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/trace"
)

// BinaryNAF recodes the scalar into non-adjacent form before scanning,
// trading a precomputed negation for fewer nonzero digits than plain
// double-and-add. Ported from pyecsca's BinaryNAFMultiplier
// (pyecsca/ec/mult/naf.py).
type BinaryNAF struct {
	*Multiplier
	Direction         Direction
	AccumulationOrder AccumulationOrder

	pointNeg *curve.Point
}

func NewBinaryNAF(add, dbl, neg, scl *formula.Formula, direction Direction, order AccumulationOrder) (*BinaryNAF, error) {
	base, err := NewMultiplier(true, add, dbl, neg, scl)
	if err != nil {
		return nil, err
	}
	return &BinaryNAF{Multiplier: base, Direction: direction, AccumulationOrder: order}, nil
}

// Init binds the multiplier and precomputes the negation of point, the
// Go analogue of BinaryNAFMultiplier.init's PrecomputationAction block.
func (b *BinaryNAF) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := b.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	neg, err := b.neg(ctx, point)
	if err != nil {
		return err
	}
	b.pointNeg = neg
	if pr, ok := trace.FromContext(ctx).(trace.PrecompRecorder); ok {
		pr.MarkPrecomputed(neg)
	}
	return nil
}

func (b *BinaryNAF) ltr(ctx context.Context, digits []int) (*curve.Point, error) {
	q := b.params.Curve.Neutral
	for _, v := range digits {
		var err error
		q, err = b.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		switch v {
		case 1:
			q, err = b.accumulate(ctx, b.AccumulationOrder, q, b.point)
		case -1:
			q, err = b.accumulate(ctx, b.AccumulationOrder, q, b.pointNeg)
		}
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (b *BinaryNAF) rtl(ctx context.Context, digits []int) (*curve.Point, error) {
	q := b.point
	r := b.params.Curve.Neutral
	for i := len(digits) - 1; i >= 0; i-- {
		v := digits[i]
		var err error
		switch v {
		case 1:
			r, err = b.accumulate(ctx, b.AccumulationOrder, r, q)
		case -1:
			var negQ *curve.Point
			negQ, err = b.neg(ctx, q)
			if err == nil {
				r, err = b.accumulate(ctx, b.AccumulationOrder, r, negQ)
			}
		}
		if err != nil {
			return nil, err
		}
		q, err = b.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (b *BinaryNAF) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := b.requireInit(); err != nil {
		return nil, err
	}
	scalar = b.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return b.params.Curve.Neutral, nil
	}
	digits := NAF(scalar)
	var q *curve.Point
	var err error
	if b.Direction == LTR {
		q, err = b.ltr(ctx, digits)
	} else {
		q, err = b.rtl(ctx, digits)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := b.Formulas["scl"]; ok {
		q, err = b.scl(ctx, q)
	}
	return q, err
}

// WindowNAF is the windowed NAF multiplier: it recodes with a wider
// window, precomputing odd multiples 1P,3P,5P,...,(2^(w-1)-1)P of the
// point up front. Ported from pyecsca's WindowNAFMultiplier
// (pyecsca/ec/mult/naf.py).
type WindowNAF struct {
	*Multiplier
	Width              uint
	AccumulationOrder  AccumulationOrder
	PrecomputeNegation bool

	points    map[int64]*curve.Point
	pointsNeg map[int64]*curve.Point
}

func NewWindowNAF(add, dbl, neg, scl *formula.Formula, width uint, order AccumulationOrder, precomputeNegation bool) (*WindowNAF, error) {
	if width < 2 {
		width = 2
	}
	base, err := NewMultiplier(true, add, dbl, neg, scl)
	if err != nil {
		return nil, err
	}
	return &WindowNAF{Multiplier: base, Width: width, AccumulationOrder: order, PrecomputeNegation: precomputeNegation}, nil
}

func (w *WindowNAF) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := w.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	w.points = map[int64]*curve.Point{}
	w.pointsNeg = map[int64]*curve.Point{}
	current := point
	double, err := w.dbl(ctx, point)
	if err != nil {
		return err
	}
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	count := int64(1) << (w.Width - 2)
	for i := int64(0); i < count; i++ {
		w.points[2*i+1] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
		if w.PrecomputeNegation {
			negP, err := w.neg(ctx, current)
			if err != nil {
				return err
			}
			w.pointsNeg[2*i+1] = negP
			if pr != nil {
				pr.MarkPrecomputed(negP)
			}
		}
		if i+1 < count {
			current, err = w.add(ctx, current, double)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *WindowNAF) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := w.requireInit(); err != nil {
		return nil, err
	}
	scalar = w.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return w.params.Curve.Neutral, nil
	}
	digits := WNAF(scalar, w.Width)
	q := w.params.Curve.Neutral
	for _, v := range digits {
		var err error
		q, err = w.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		switch {
		case v > 0:
			q, err = w.accumulate(ctx, w.AccumulationOrder, q, w.points[int64(v)])
		case v < 0:
			neg, ok := w.pointsNeg[int64(-v)]
			if !ok {
				neg, err = w.neg(ctx, w.points[int64(-v)])
			}
			if err == nil {
				q, err = w.accumulate(ctx, w.AccumulationOrder, q, neg)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if _, ok := w.Formulas["scl"]; ok {
		var err error
		q, err = w.scl(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}
