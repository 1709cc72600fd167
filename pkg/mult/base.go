// Package mult implements scalar multiplier algorithms: the strategies by
// which a point is multiplied by an integer scalar using a fixed set of
// formulas (add/dbl/scl/ladd/dadd/neg). Ported from pyecsca's
// pyecsca/ec/mult/base.py and its siblings (binary.py, ladder.py, ...).
package mult

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/formula"
)

// Direction is the scalar scan direction, left-to-right (MSB first) or
// right-to-left (LSB first).
type Direction int

const (
	LTR Direction = iota
	RTL
)

// AccumulationOrder controls operand order in the accumulation step,
// P = P+R or P = R+P — irrelevant for the affine result but observable in
// the projective representation, hence in side-channel traces.
type AccumulationOrder int

const (
	PeqPR AccumulationOrder = iota
	PeqRP
)

// ScalarMultiplier is satisfied by every multiplier in this package (and
// by pkg/countermeasure's wrappers around them): whatever the recoding or
// windowing strategy, the public surface a protocol needs is "multiply the
// bound point by this scalar". Init is not part of this interface; it is
// the separate Initializer interface, which every multiplier here shares.
// Callers construct and Init a concrete type, then pass it around as a
// ScalarMultiplier.
type ScalarMultiplier interface {
	Multiply(ctx context.Context, scalar *big.Int) (*curve.Point, error)
}

// Initializer is satisfied by every multiplier's Init method, letting
// generic code (pkg/countermeasure) bind a multiplier to a fresh
// point/bit-length without knowing its concrete type.
type Initializer interface {
	Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error
}

// Multiplier is the common machinery every scalar multiplier embeds:
// bound formulas, the domain parameters and point to operate on once
// Init is called, and short-circuit/neutral-element handling. Ported
// from pyecsca's ScalarMultiplier (pyecsca/ec/mult/base.py).
type Multiplier struct {
	Formulas     map[string]*formula.Formula
	ShortCircuit bool

	params      *curve.DomainParameters
	point       *curve.Point
	bits        int
	initialized bool
}

// NewMultiplier validates that every formula shares one coordinate model
// and stores them under their shortname (e.g. "add","dbl","scl").
func NewMultiplier(shortCircuit bool, formulas ...*formula.Formula) (*Multiplier, error) {
	m := &Multiplier{Formulas: map[string]*formula.Formula{}, ShortCircuit: shortCircuit}
	var coords *curve.CoordinateModel
	for _, f := range formulas {
		if f == nil {
			continue
		}
		if coords == nil {
			coords = f.Coords
		} else if f.Coords != coords {
			return nil, fmt.Errorf("mult: %w: formulas must share one coordinate model", ecerrors.InputMismatch)
		}
		m.Formulas[f.Shortname()] = f
	}
	return m, nil
}

// Init binds params and point to this multiplier. bits, if 0, defaults to
// the bit length of the curve's full order (order * cofactor). ctx is
// unused by the base Multiplier (it does no precomputation) but is part
// of the signature so every multiplier in this package, including the
// BinaryNAF/WindowNAF overrides that do precompute, shares one
// Initializer interface.
func (m *Multiplier) Init(ctx context.Context, params *curve.DomainParameters, point *curve.Point, bitLen int) error {
	for _, f := range m.Formulas {
		if f.Coords != params.Curve.CoordinateModel || f.Coords != point.Model {
			return fmt.Errorf("mult: %w: coordinate models of params/formulas/point disagree", ecerrors.InputMismatch)
		}
		break
	}
	m.params = params
	m.point = point
	if bitLen == 0 {
		fullOrder := new(big.Int).Mul(params.Order, params.Cofactor)
		bitLen = fullOrder.BitLen()
	}
	m.bits = bitLen
	m.initialized = true
	return nil
}

// normalizeScalar reduces a negative scalar into [0, order), so a
// countermeasure that derives a scalar by subtraction (e.g. AdditiveSplitting's
// k-r) can hand the result straight to Multiply. Non-negative scalars pass
// through unchanged, even when >= order, since plain repeated doubling
// already tolerates that.
func (m *Multiplier) normalizeScalar(scalar *big.Int) *big.Int {
	if scalar.Sign() >= 0 {
		return scalar
	}
	return new(big.Int).Mod(scalar, m.params.Order)
}

func (m *Multiplier) requireInit() error {
	if !m.initialized {
		return fmt.Errorf("mult: %w", ecerrors.Uninitialized)
	}
	return nil
}

func (m *Multiplier) add(ctx context.Context, one, other *curve.Point) (*curve.Point, error) {
	f, ok := m.Formulas["add"]
	if !ok {
		return nil, fmt.Errorf("mult: %w: add", ecerrors.MissingFormula)
	}
	if m.ShortCircuit {
		if one.Equal(m.params.Curve.Neutral) {
			return other, nil
		}
		if other.Equal(m.params.Curve.Neutral) {
			return one, nil
		}
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{one, other}, m.params.Curve.Parameters)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *Multiplier) dbl(ctx context.Context, p *curve.Point) (*curve.Point, error) {
	f, ok := m.Formulas["dbl"]
	if !ok {
		return nil, fmt.Errorf("mult: %w: dbl", ecerrors.MissingFormula)
	}
	if m.ShortCircuit && p.Equal(m.params.Curve.Neutral) {
		return p, nil
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{p}, m.params.Curve.Parameters)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *Multiplier) scl(ctx context.Context, p *curve.Point) (*curve.Point, error) {
	f, ok := m.Formulas["scl"]
	if !ok {
		return nil, fmt.Errorf("mult: %w: scl", ecerrors.MissingFormula)
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{p}, m.params.Curve.Parameters)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *Multiplier) neg(ctx context.Context, p *curve.Point) (*curve.Point, error) {
	f, ok := m.Formulas["neg"]
	if !ok {
		return nil, fmt.Errorf("mult: %w: neg", ecerrors.MissingFormula)
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{p}, m.params.Curve.Parameters)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *Multiplier) dadd(ctx context.Context, start, one, other *curve.Point) (*curve.Point, error) {
	f, ok := m.Formulas["dadd"]
	if !ok {
		return nil, fmt.Errorf("mult: %w: dadd", ecerrors.MissingFormula)
	}
	if m.ShortCircuit {
		if one.Equal(m.params.Curve.Neutral) {
			return other, nil
		}
		if other.Equal(m.params.Curve.Neutral) {
			return one, nil
		}
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{start, one, other}, m.params.Curve.Parameters)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *Multiplier) ladd(ctx context.Context, start, toDbl, toAdd *curve.Point) (*curve.Point, *curve.Point, error) {
	f, ok := m.Formulas["ladd"]
	if !ok {
		return nil, nil, fmt.Errorf("mult: %w: ladd", ecerrors.MissingFormula)
	}
	if m.ShortCircuit {
		if toDbl.Equal(m.params.Curve.Neutral) {
			return toDbl, toAdd, nil
		}
		if toAdd.Equal(m.params.Curve.Neutral) {
			d, err := m.dbl(ctx, toDbl)
			return d, toDbl, err
		}
	}
	out, _, err := f.Execute(ctx, m.params.Curve.Field, []*curve.Point{start, toDbl, toAdd}, m.params.Curve.Parameters)
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

func (m *Multiplier) accumulate(ctx context.Context, order AccumulationOrder, r, q *curve.Point) (*curve.Point, error) {
	if order == PeqRP {
		return m.add(ctx, q, r)
	}
	return m.add(ctx, r, q)
}

// scalarBits materializes scalar as a fixed-width bitset, MSB-accessible
// via Test(i), the bit-by-bit scan every binary multiplier performs. Using
// a bitset instead of repeated shifting of a big.Int makes the per-bit
// access pattern explicit, matching the "systems-flavored" treatment the
// rest of this module gives to fixed-width data.
func scalarBits(scalar *big.Int, width int) *bitset.BitSet {
	bs := bitset.New(uint(width))
	for i := 0; i < width; i++ {
		if scalar.Bit(i) == 1 {
			bs.Set(uint(i))
		}
	}
	return bs
}
