package mult

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/trace"
)

// FixedWindowLTR is LTRMultiplier generalized from binary to base m: it
// recodes the scalar into base-m digits and, per digit, multiplies the
// running total by m (via repeated doubling when m is a power of two, via
// repeated addition otherwise) before accumulating the digit's precomputed
// multiple. Ported from pyecsca's FixedWindowLTRMultiplier
// (pyecsca/ec/mult/window.py).
type FixedWindowLTR struct {
	*Multiplier
	Base              int64
	AccumulationOrder AccumulationOrder

	points map[int64]*curve.Point
}

func NewFixedWindowLTR(add, dbl, scl *formula.Formula, base int64, order AccumulationOrder) (*FixedWindowLTR, error) {
	if base < 2 {
		return nil, fmt.Errorf("mult: %w: fixed-window base must be >= 2", ecerrors.InputMismatch)
	}
	m, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &FixedWindowLTR{Multiplier: m, Base: base, AccumulationOrder: order}, nil
}

func (f *FixedWindowLTR) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := f.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	double, err := f.dbl(ctx, point)
	if err != nil {
		return err
	}
	f.points = map[int64]*curve.Point{1: point, 2: double}
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	if pr != nil {
		pr.MarkPrecomputed(double)
	}
	current := double
	for i := int64(3); i < f.Base; i++ {
		current, err = f.add(ctx, current, point)
		if err != nil {
			return err
		}
		f.points[i] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
	}
	return nil
}

// multM raises q to the f.Base-th power of the group operation: repeated
// doubling when Base is a power of two, repeated addition of the original
// point otherwise (mirroring the original's power-of-two special case).
func (f *FixedWindowLTR) multM(ctx context.Context, q *curve.Point) (*curve.Point, error) {
	if f.Base&(f.Base-1) == 0 {
		var err error
		for n := bitLen64(f.Base) - 1; n > 0; n-- {
			q, err = f.dbl(ctx, q)
			if err != nil {
				return nil, err
			}
		}
		return q, nil
	}
	r := q
	q, err := f.dbl(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < f.Base-2; i++ {
		q, err = f.accumulate(ctx, f.AccumulationOrder, q, r)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (f *FixedWindowLTR) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := f.requireInit(); err != nil {
		return nil, err
	}
	scalar = f.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return f.params.Curve.Neutral, nil
	}
	digits := ConvertBase(scalar, f.Base)
	q := f.params.Curve.Neutral
	for i := len(digits) - 1; i >= 0; i-- {
		var err error
		q, err = f.multM(ctx, q)
		if err != nil {
			return nil, err
		}
		if digits[i] != 0 {
			q, err = f.accumulate(ctx, f.AccumulationOrder, q, f.points[digits[i]])
			if err != nil {
				return nil, err
			}
		}
	}
	if _, ok := f.Formulas["scl"]; ok {
		var err error
		q, err = f.scl(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

// SlidingWindow recodes the scalar with the sliding-window form (odd
// windows of up to Width bits, separated by runs of zero digits) and
// precomputes the odd multiples the recoding can reference, the way
// WindowNAF does for NAF digits. Ported from pyecsca's
// SlidingWindowMultiplier, built on sliding_window_ltr/rtl
// (pyecsca/ec/scalar.py).
type SlidingWindow struct {
	*Multiplier
	Width             uint
	Direction         Direction
	AccumulationOrder AccumulationOrder

	points map[int64]*curve.Point
}

func NewSlidingWindow(add, dbl, scl *formula.Formula, width uint, direction Direction, order AccumulationOrder) (*SlidingWindow, error) {
	if width < 2 {
		width = 2
	}
	m, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &SlidingWindow{Multiplier: m, Width: width, Direction: direction, AccumulationOrder: order}, nil
}

func (s *SlidingWindow) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := s.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	double, err := s.dbl(ctx, point)
	if err != nil {
		return err
	}
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	s.points = map[int64]*curve.Point{1: point}
	current := point
	limit := int64(1) << s.Width
	for i := int64(3); i < limit; i += 2 {
		current, err = s.add(ctx, current, double)
		if err != nil {
			return err
		}
		s.points[i] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
	}
	return nil
}

func (s *SlidingWindow) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	scalar = s.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return s.params.Curve.Neutral, nil
	}
	var digits []int
	if s.Direction == LTR {
		digits = SlidingWindowLTR(scalar, s.Width)
	} else {
		digits = SlidingWindowRTL(scalar, s.Width)
	}
	q := s.params.Curve.Neutral
	for _, d := range digits {
		var err error
		q, err = s.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		if d != 0 {
			q, err = s.accumulate(ctx, s.AccumulationOrder, q, s.points[int64(d)])
			if err != nil {
				return nil, err
			}
		}
	}
	if _, ok := s.Formulas["scl"]; ok {
		var err error
		q, err = s.scl(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

// WindowBooth recodes the scalar LSB-first in non-overlapping (Width-1)-bit
// groups using generalized Booth recoding: each group plus an incoming
// carry bit is read as a Width-bit value in [0, 2^Width); values at or
// past the halfway point fold back negative and raise the carry into the
// next group. The result is a signed digit in [-2^(Width-1), 2^(Width-1))
// per group, each processed LSB-first against precomputed odd multiples
// and their negations. Ported from pyecsca's WindowBoothMultiplier
// (pyecsca/ec/mult/naf.py), generalizing the hardware Booth-recoding
// technique beyond its usual radix-4 case.
type WindowBooth struct {
	*Multiplier
	Width             uint
	AccumulationOrder AccumulationOrder

	points    map[int64]*curve.Point
	pointsNeg map[int64]*curve.Point
}

func NewWindowBooth(add, dbl, neg, scl *formula.Formula, width uint, order AccumulationOrder) (*WindowBooth, error) {
	if width < 2 {
		width = 2
	}
	m, err := NewMultiplier(true, add, dbl, neg, scl)
	if err != nil {
		return nil, err
	}
	return &WindowBooth{Multiplier: m, Width: width, AccumulationOrder: order}, nil
}

func (w *WindowBooth) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := w.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	w.points = map[int64]*curve.Point{1: point}
	w.pointsNeg = map[int64]*curve.Point{}
	current := point
	// Every digit boothRecode can produce has |digit| <= limit, not just odd
	// multiples (unlike wNAF), since a recoded window can land on an even
	// value too — so every multiple up to limit needs a precomputed point.
	limit := int64(1) << (w.Width - 1)
	var err error
	for i := int64(2); i <= limit; i++ {
		current, err = w.add(ctx, current, point)
		if err != nil {
			return err
		}
		w.points[i] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
	}
	for i, p := range w.points {
		negP, err := w.neg(ctx, p)
		if err != nil {
			return err
		}
		w.pointsNeg[i] = negP
		if pr != nil {
			pr.MarkPrecomputed(negP)
		}
	}
	return nil
}

// boothRecode produces the LSB-first signed-digit groups described on
// WindowBooth: each step peels off the low Width bits of what remains,
// folds values past the halfway point negative (carrying the
// corresponding +2^Width back into what remains via the subtraction), and
// advances by Width-1 bits rather than Width — the one-bit overlap is what
// lets the next group absorb that carry.
func boothRecode(k *big.Int, width uint) []int64 {
	step := width - 1
	full := int64(1) << width
	half := full / 2
	mask := big.NewInt(full - 1)

	var digits []int64
	rem := new(big.Int).Set(k)
	for rem.Sign() != 0 {
		window := new(big.Int).And(rem, mask).Int64()
		if window >= half {
			window -= full
		}
		digits = append(digits, window)
		rem.Sub(rem, big.NewInt(window))
		rem.Rsh(rem, step)
	}
	return digits
}

func (w *WindowBooth) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := w.requireInit(); err != nil {
		return nil, err
	}
	scalar = w.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return w.params.Curve.Neutral, nil
	}
	digits := boothRecode(scalar, w.Width)
	q := w.params.Curve.Neutral
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		var err error
		for j := uint(0); j < w.Width-1; j++ {
			q, err = w.dbl(ctx, q)
			if err != nil {
				return nil, err
			}
		}
		switch {
		case d > 0:
			q, err = w.accumulate(ctx, w.AccumulationOrder, q, w.points[d])
		case d < 0:
			q, err = w.accumulate(ctx, w.AccumulationOrder, q, w.pointsNeg[-d])
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
