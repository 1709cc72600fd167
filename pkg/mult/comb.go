package mult

import (
	"context"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/trace"
)

// BGMW is the Brickell-Gordon-McCurley-Wilson comb-like multiplier: it
// precomputes [2^(w*i)]P for each digit position i, recodes the scalar in
// base 2^w, and processes the recoded digits from the widest value down
// to 1, accumulating every position whose digit equals the current value.
// Algorithm 3.41 of [GECC]. Ported from pyecsca's BGMWMultiplier
// (pyecsca/ec/mult/comb.py).
type BGMW struct {
	*Multiplier
	Width             uint
	Direction         Direction
	AccumulationOrder AccumulationOrder

	points map[int]*curve.Point
}

func NewBGMW(add, dbl, scl *formula.Formula, width uint, direction Direction, order AccumulationOrder) (*BGMW, error) {
	if width < 1 {
		width = 1
	}
	m, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &BGMW{Multiplier: m, Width: width, Direction: direction, AccumulationOrder: order}, nil
}

func (b *BGMW) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := b.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	d := ceilDiv(params.Order.BitLen(), int(b.Width))
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	b.points = map[int]*curve.Point{}
	current := point
	for i := 0; i < d; i++ {
		b.points[i] = current
		if pr != nil {
			pr.MarkPrecomputed(current)
		}
		if i != d-1 {
			var err error
			for j := uint(0); j < b.Width; j++ {
				current, err = b.dbl(ctx, current)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *BGMW) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := b.requireInit(); err != nil {
		return nil, err
	}
	scalar = b.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return b.params.Curve.Neutral, nil
	}
	recoded := ConvertBase(scalar, int64(1)<<b.Width)
	a := b.params.Curve.Neutral
	bb := b.params.Curve.Neutral
	top := int64(1) << b.Width
	for j := top - 1; j >= 1; j-- {
		var err error
		if b.Direction == RTL {
			for i, ki := range recoded {
				if ki == j {
					bb, err = b.accumulate(ctx, b.AccumulationOrder, bb, b.points[i])
					if err != nil {
						return nil, err
					}
				}
			}
		} else {
			for i := len(recoded) - 1; i >= 0; i-- {
				if recoded[i] == j {
					bb, err = b.accumulate(ctx, b.AccumulationOrder, bb, b.points[i])
					if err != nil {
						return nil, err
					}
				}
			}
		}
		if b.ShortCircuit && a.Equal(bb) {
			a, err = b.dbl(ctx, bb)
		} else {
			a, err = b.accumulate(ctx, b.AccumulationOrder, a, bb)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, ok := b.Formulas["scl"]; ok {
		var err error
		a, err = b.scl(ctx, a)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Comb is the w-tooth comb multiplier: it splits the bit-length into w
// equal "teeth", precomputes every nonzero combination of the w base
// points [2^(d*i)]P, then scans one bit-slice at a time, doubling once and
// accumulating the precomputed combination the slice's bits select.
// Algorithm 3.44 of [GECC]. Ported from pyecsca's CombMultiplier
// (pyecsca/ec/mult/comb.py).
type Comb struct {
	*Multiplier
	Width             uint
	AccumulationOrder AccumulationOrder

	points map[int]*curve.Point
}

func NewComb(add, dbl, scl *formula.Formula, width uint, order AccumulationOrder) (*Comb, error) {
	if width < 1 {
		width = 1
	}
	m, err := NewMultiplier(true, add, dbl, scl)
	if err != nil {
		return nil, err
	}
	return &Comb{Multiplier: m, Width: width, AccumulationOrder: order}, nil
}

func (c *Comb) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	if err := c.Multiplier.Init(ctx, params, point, bitLen); err != nil {
		return err
	}
	d := ceilDiv(params.Order.BitLen(), int(c.Width))
	base := map[int]*curve.Point{}
	current := point
	for i := 0; i < int(c.Width); i++ {
		base[i] = current
		if i != int(c.Width)-1 {
			var err error
			for j := 0; j < d; j++ {
				current, err = c.dbl(ctx, current)
				if err != nil {
					return err
				}
			}
		}
	}
	pr, _ := trace.FromContext(ctx).(trace.PrecompRecorder)
	c.points = map[int]*curve.Point{}
	for j := 1; j < (1 << c.Width); j++ {
		var picked []*curve.Point
		for i := 0; i < int(c.Width); i++ {
			if j&(1<<i) != 0 {
				picked = append(picked, base[i])
			}
		}
		acc := picked[0]
		for _, other := range picked[1:] {
			var err error
			acc, err = c.accumulate(ctx, c.AccumulationOrder, acc, other)
			if err != nil {
				return err
			}
		}
		c.points[j] = acc
		if pr != nil {
			pr.MarkPrecomputed(acc)
		}
	}
	return nil
}

func (c *Comb) Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error) {
	if err := c.requireInit(); err != nil {
		return nil, err
	}
	scalar = c.normalizeScalar(scalar)
	if scalar.Sign() == 0 {
		return c.params.Curve.Neutral, nil
	}
	d := ceilDiv(c.params.Order.BitLen(), int(c.Width))
	recoded := ConvertBase(scalar, int64(1)<<uint(d))
	if len(recoded) < int(c.Width) {
		padded := make([]int64, c.Width)
		copy(padded, recoded)
		recoded = padded
	}
	q := c.params.Curve.Neutral
	for i := d - 1; i >= 0; i-- {
		var err error
		q, err = c.dbl(ctx, q)
		if err != nil {
			return nil, err
		}
		word := 0
		for j := 0; j < int(c.Width); j++ {
			bit := (recoded[j] >> uint(i)) & 1
			word |= int(bit) << uint(j)
		}
		if word != 0 {
			q, err = c.accumulate(ctx, c.AccumulationOrder, q, c.points[word])
			if err != nil {
				return nil, err
			}
		}
	}
	if _, ok := c.Formulas["scl"]; ok {
		var err error
		q, err = c.scl(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
