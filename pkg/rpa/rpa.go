// Package rpa implements Refined Power Analysis re-engineering: simulating
// the zero-coordinate leakage oracle Goubin's attack exploits, and
// distinguishing which scalar-multiplication configuration produced a
// given oracle's answers. Grounded on pyecsca's MultipleContext
// (pyecsca/sca/re/rpa.py, ported in full below) plus the rpa_point_x0/
// rpa_point_0y/rpa_distinguish helpers exercised by
// test/sca/test_rpa.py — whose own implementations are not present in
// this pack (see DESIGN.md) and are reconstructed here from that test's
// usage and from the prose in spec.md.
package rpa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/ecsim/ecsim/pkg/trace"
	"golang.org/x/sync/errgroup"
)

// MultipleContext tracks, for one scalar multiplication, which multiple of
// the base point every point computed along the way represents, which
// points fed directly into producing it (its formula's inputs), which
// formula produced it, and which points were produced during
// precomputation. Ported from pyecsca's MultipleContext, whose points
// map this extends with Parents/Formulas/Precomp — the bookkeeping
// rpa_distinguish's oracle simulation and pkg/epa's check-input extraction
// both need and that a later version of the original tracks under the
// same name.
type MultipleContext struct {
	Base     *curve.Point
	Points   map[*curve.Point]int64
	Parents  map[*curve.Point][]*curve.Point
	Formulas map[*curve.Point]string
	Precomp  map[int64]*curve.Point
}

func NewMultipleContext() *MultipleContext {
	return &MultipleContext{
		Points:   map[*curve.Point]int64{},
		Parents:  map[*curve.Point][]*curve.Point{},
		Formulas: map[*curve.Point]string{},
		Precomp:  map[int64]*curve.Point{},
	}
}

// Reset establishes base as the multiple-1 point and clears everything
// else, the analogue of pyecsca's enter_action on
// ScalarMultiplicationAction/PrecomputationAction. Call it before handing
// the context to a fresh Init+Multiply (or Init precompute) run.
func (c *MultipleContext) Reset(base *curve.Point) {
	c.Base = base
	c.Points = map[*curve.Point]int64{base: 1}
	c.Parents = map[*curve.Point][]*curve.Point{}
	c.Formulas = map[*curve.Point]string{}
	c.Precomp = map[int64]*curve.Point{}
}

func (c *MultipleContext) LogAction(string, map[string]mod.Mod) {}
func (c *MultipleContext) LogOperation(*op.CodeOp, mod.Mod)      {}
func (c *MultipleContext) LogResult(map[string]mod.Mod)          {}

func (c *MultipleContext) multipleOf(p *curve.Point) int64 {
	return c.Points[p]
}

func (c *MultipleContext) record(formulaName string, out *curve.Point, m int64, parents ...*curve.Point) {
	c.Points[out] = m
	c.Formulas[out] = formulaName
	c.Parents[out] = append(c.Parents[out], parents...)
}

// LogFormula implements trace.PointRecorder, composing each output's
// multiple from its inputs' multiples the way pyecsca's exit_action
// switches on formula kind.
func (c *MultipleContext) LogFormula(formulaName, kind string, inputs, outputs []*curve.Point) {
	switch kind {
	case "dbl":
		c.record(formulaName, outputs[0], 2*c.multipleOf(inputs[0]), inputs[0])
	case "tpl":
		c.record(formulaName, outputs[0], 3*c.multipleOf(inputs[0]), inputs[0])
	case "neg":
		c.record(formulaName, outputs[0], -c.multipleOf(inputs[0]), inputs[0])
	case "add":
		c.record(formulaName, outputs[0], c.multipleOf(inputs[0])+c.multipleOf(inputs[1]), inputs[0], inputs[1])
	case "dadd":
		// inputs: diff, one, other — the multiple ignores diff, but diff
		// is still a direct formula parent (and its own zero coordinate
		// is still observable leakage).
		diff, one, other := inputs[0], inputs[1], inputs[2]
		c.record(formulaName, outputs[0], c.multipleOf(one)+c.multipleOf(other), diff, one, other)
	case "ladd":
		diff, one, other := inputs[0], inputs[1], inputs[2]
		dbl, add := outputs[0], outputs[1]
		c.record(formulaName, add, c.multipleOf(one)+c.multipleOf(other), diff, one, other)
		c.record(formulaName, dbl, 2*c.multipleOf(one), diff, one, other)
	case "scl":
		c.record(formulaName, outputs[0], c.multipleOf(inputs[0]), inputs[0])
	}
}

// MarkPrecomputed implements trace.PrecompRecorder: p must already have
// been assigned a multiple (it was produced by a dbl/add/neg call that
// went through LogFormula), and is simply indexed here by that multiple
// for pkg/epa's use_init-mode check extraction.
func (c *MultipleContext) MarkPrecomputed(p *curve.Point) {
	if m, ok := c.Points[p]; ok {
		c.Precomp[m] = p
	}
}

// AnyParentZero reports whether any NON-TRIVIAL multiple of the base
// point computed during this run — a multiple other than +-1 — has a
// zero coordinate: the physical leakage signal Goubin's RPA oracle
// observes. The base point itself (multiple 1, by construction one of
// PointX0/Point0Y, already zero-coordinate) is excluded: it appears as a
// formula input in every nonzero-scalar multiplication regardless of
// algorithm, so counting it would make every candidate indistinguishable.
// The informative case is a DIFFERENT multiple coincidentally landing on
// the same special point partway through the computation, which only
// happens for specific scalar/algorithm traversals.
func (c *MultipleContext) AnyParentZero() bool {
	for p, m := range c.Points {
		if m == 1 || m == -1 {
			continue
		}
		if pointHasZeroCoord(p) {
			return true
		}
	}
	return false
}

func pointHasZeroCoord(p *curve.Point) bool {
	for _, v := range p.Coords {
		if x := v.X(); x != nil && x.Sign() == 0 {
			return true
		}
	}
	return false
}

// PointX0 returns an affine point on params' short-Weierstrass curve with
// Y == 0, solving the depressed cubic x^3 + a*x + b = 0 for x via
// Cardano's formula (named rpa_point_x0 in the source this is ported
// from; see test_rpa.py's test_x0_point, which is the ground truth for
// which coordinate ends up zero — not spec.md's prose order).
func PointX0(params *curve.DomainParameters) (*curve.Point, error) {
	field := params.Curve.Field
	a := params.Curve.Parameters["a"]
	b := params.Curve.Parameters["b"]
	if a == nil || b == nil {
		return nil, fmt.Errorf("rpa: %w: curve has no short-Weierstrass a,b parameters", ecerrors.InputMismatch)
	}

	var x mod.Mod
	if a.X().Sign() == 0 {
		negB := b.Neg()
		root, err := negB.CubeRoot()
		if err != nil {
			return nil, fmt.Errorf("rpa: no x with y=0 on this curve: %w", err)
		}
		x = root
	} else {
		three, err := mod.FromInt64(3, field)
		if err != nil {
			return nil, err
		}
		twentySeven, err := mod.FromInt64(27, field)
		if err != nil {
			return nil, err
		}
		four, err := mod.FromInt64(4, field)
		if err != nil {
			return nil, err
		}
		two, err := mod.FromInt64(2, field)
		if err != nil {
			return nil, err
		}
		// depressed cubic t^3 + a*t + b = 0: u^3,v^3 are roots of
		// z^2 + b*z - a^3/27 = 0, t = u + v with u*v = -a/3.
		a3, err := a.Pow(big.NewInt(3))
		if err != nil {
			return nil, err
		}
		p3over27, err := a3.Div(twentySeven)
		if err != nil {
			return nil, err
		}
		disc, err := b.Mul(b)
		if err != nil {
			return nil, err
		}
		term, err := four.Mul(p3over27)
		if err != nil {
			return nil, err
		}
		disc, err = disc.Add(term)
		if err != nil {
			return nil, err
		}
		sqrtDisc, err := disc.Sqrt()
		if err != nil {
			return nil, fmt.Errorf("rpa: no x with y=0 on this curve: %w", err)
		}
		negB := b.Neg()
		z, err := negB.Add(sqrtDisc)
		if err != nil {
			return nil, err
		}
		z, err = z.Div(two)
		if err != nil {
			return nil, err
		}
		u, err := z.CubeRoot()
		if err != nil {
			return nil, fmt.Errorf("rpa: no x with y=0 on this curve: %w", err)
		}
		if u.X().Sign() == 0 {
			return nil, fmt.Errorf("rpa: degenerate cubic root while solving for y=0 point")
		}
		threeU, err := three.Mul(u)
		if err != nil {
			return nil, err
		}
		v, err := a.Neg().Div(threeU)
		if err != nil {
			return nil, err
		}
		x, err = u.Add(v)
		if err != nil {
			return nil, err
		}
	}

	zero, err := mod.FromInt64(0, field)
	if err != nil {
		return nil, err
	}
	affine := curve.Affine(params.Curve.Model)
	return curve.NewPoint(affine, map[string]mod.Mod{"x": x, "y": zero})
}

// Point0Y returns an affine point on params' curve with X == 0, solving
// y^2 = b (named rpa_point_0y in the source this is ported from).
func Point0Y(params *curve.DomainParameters) (*curve.Point, error) {
	field := params.Curve.Field
	b := params.Curve.Parameters["b"]
	if b == nil {
		return nil, fmt.Errorf("rpa: %w: curve has no short-Weierstrass b parameter", ecerrors.InputMismatch)
	}
	y, err := b.Sqrt()
	if err != nil {
		return nil, fmt.Errorf("rpa: no y with x=0 on this curve: %w", err)
	}
	zero, err := mod.FromInt64(0, field)
	if err != nil {
		return nil, err
	}
	affine := curve.Affine(params.Curve.Model)
	return curve.NewPoint(affine, map[string]mod.Mod{"x": zero, "y": y})
}

// Multiplier is the subset of mult's interfaces a candidate configuration
// needs to be simulated by Distinguish.
type Multiplier interface {
	mult.Initializer
	mult.ScalarMultiplier
}

// Candidate names one multiplier configuration under test. Factory builds
// a fresh, un-Init'd instance, since a Multiplier is stateful (bound
// point, precomputed tables) once Init'd and every trial needs a clean
// one.
type Candidate struct {
	Name    string
	Factory func() (Multiplier, error)
}

// Oracle answers, for a chosen scalar and affine-derived point, whether
// some point consumed as a formula input during scalar*point had a zero
// coordinate — the physical signal Goubin's attack exploits. Ported from
// test_rpa.py's simulated_oracle closure.
type Oracle func(scalar *big.Int, point *curve.Point) (bool, error)

// Trial is one (scalar, point) pair Distinguish and the real oracle are
// both queried against; point must be in the coordinate model the
// candidates' formulas expect.
type Trial struct {
	Scalar *big.Int
	Point  *curve.Point
}

// DefaultTrials builds a batch of (scalar, point) trials from the two
// canonical RPA points (PointX0, Point0Y, each passed through scale)
// crossed with a handful of scalars, for callers that don't want to choose
// their own test batch. coords is not used.
func DefaultTrials(params *curve.DomainParameters, coords *curve.CoordinateModel, scale func(*curve.Point) (*curve.Point, error)) ([]Trial, error) {
	x0, err := PointX0(params)
	if err != nil {
		return nil, err
	}
	zy, err := Point0Y(params)
	if err != nil {
		return nil, err
	}
	if scale != nil {
		if x0, err = scale(x0); err != nil {
			return nil, err
		}
		if zy, err = scale(zy); err != nil {
			return nil, err
		}
	}
	one := big.NewInt(1)
	scalars := []*big.Int{
		one,
		big.NewInt(2),
		big.NewInt(3),
		new(big.Int).Rsh(params.Order, 1),
		new(big.Int).Sub(params.Order, one),
	}
	var trials []Trial
	for _, s := range scalars {
		trials = append(trials, Trial{Scalar: s, Point: x0}, Trial{Scalar: s, Point: zy})
	}
	return trials, nil
}

// Distinguish replicates, for every candidate, the oracle's internal
// zero-coordinate-leak simulation over the same (scalar, point) trials,
// and returns the subset of candidates whose simulated answers match the
// real oracle's answers on every trial. Ported from pyecsca's
// rpa_distinguish (pyecsca.sca.re.rpa); that function's implementation is
// not present in this pack (see DESIGN.md) and is reconstructed here from
// spec.md's description of rpa_distinguish plus test_rpa.py's
// test_distinguish, which exercises exactly this oracle/candidate
// contract.
//
// Candidates are simulated concurrently, one goroutine per candidate: each
// goroutine's call chain builds its own multiplier (via Factory) and its
// own MultipleContext per trial (inside Simulate), so no state is shared
// across goroutines — the "each holds its own context" independence this
// needs to be safely parallel.
func Distinguish(params *curve.DomainParameters, candidates []Candidate, oracle Oracle, trials []Trial) ([]Candidate, error) {
	if len(trials) == 0 {
		return nil, fmt.Errorf("rpa: %w: no trials supplied", ecerrors.InputMismatch)
	}
	expected := make([]bool, len(trials))
	for i, tr := range trials {
		v, err := oracle(tr.Scalar, tr.Point)
		if err != nil {
			return nil, fmt.Errorf("rpa: querying oracle: %w", err)
		}
		expected[i] = v
	}

	matched := make([]bool, len(candidates))
	var g errgroup.Group
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			matched[i] = matchesAll(cand, params, trials, expected)
			return nil
		})
	}
	_ = g.Wait() // matchesAll never returns an error; errgroup only buys fan-out here.

	batchesTotal.Inc()
	var survivors []Candidate
	for i, cand := range candidates {
		if matched[i] {
			survivors = append(survivors, cand)
		}
	}
	if len(survivors) == 1 {
		distinguishedTotal.Inc()
	}
	return survivors, nil
}

func matchesAll(cand Candidate, params *curve.DomainParameters, trials []Trial, expected []bool) bool {
	for i, tr := range trials {
		got, err := Simulate(cand, params, tr.Scalar, tr.Point)
		if err != nil || got != expected[i] {
			return false
		}
	}
	return true
}

// Simulate runs one candidate's multiplier against scalar*point under a
// fresh MultipleContext and reports whether any point computed during the
// run, other than multiples +-1 of the input, had a zero coordinate (see
// AnyParentZero).
func Simulate(cand Candidate, params *curve.DomainParameters, scalar *big.Int, point *curve.Point) (bool, error) {
	m, err := cand.Factory()
	if err != nil {
		return false, err
	}
	mctx := NewMultipleContext()
	mctx.Reset(point)
	ctx := trace.WithRecorder(context.Background(), mctx)
	if err := m.Init(ctx, params, point, 0); err != nil {
		return false, err
	}
	if _, err := m.Multiply(ctx, scalar); err != nil {
		return false, err
	}
	return mctx.AnyParentZero(), nil
}

// dualContext broadcasts every callback to two MultipleContexts at once,
// so a single formula execution populates both with the same *curve.Point
// object identities — required for pkg/epa to cross-reference a point
// precomp_ctx saw during Init against its multiple in full_ctx.
type dualContext struct {
	precomp, full *MultipleContext
}

func (d *dualContext) LogAction(name string, inputs map[string]mod.Mod) {
	d.precomp.LogAction(name, inputs)
	d.full.LogAction(name, inputs)
}

func (d *dualContext) LogOperation(o *op.CodeOp, v mod.Mod) {
	d.precomp.LogOperation(o, v)
	d.full.LogOperation(o, v)
}

func (d *dualContext) LogResult(outputs map[string]mod.Mod) {
	d.precomp.LogResult(outputs)
	d.full.LogResult(outputs)
}

func (d *dualContext) LogFormula(name, kind string, inputs, outputs []*curve.Point) {
	d.precomp.LogFormula(name, kind, inputs, outputs)
	d.full.LogFormula(name, kind, inputs, outputs)
}

func (d *dualContext) MarkPrecomputed(p *curve.Point) {
	d.precomp.MarkPrecomputed(p)
	d.full.MarkPrecomputed(p)
}

// MultipleGraph runs cand against point/scalar once, recording the
// precomputation (Init) phase into both a precomp-only MultipleContext
// and a full MultipleContext, then recording the rest (Multiply) into
// the full context alone. pkg/epa's check-input extraction needs exactly
// this pair: a precomputation-only view (to ask "which multiples got
// converted to affine during Init") that shares point identities with
// the complete view (to resolve every formula's parents by multiple).
// Grounded on the precomp_ctx/full_ctx pair test_epa.py's multiple_graph
// fixture produces (the function itself is not present in this pack; its
// name and contract are inferred from that test's usage).
func MultipleGraph(params *curve.DomainParameters, cand Candidate, point *curve.Point, scalar *big.Int) (precomp, full *MultipleContext, out *curve.Point, err error) {
	m, err := cand.Factory()
	if err != nil {
		return nil, nil, nil, err
	}
	precomp = NewMultipleContext()
	precomp.Reset(point)
	full = NewMultipleContext()
	full.Reset(point)

	dual := &dualContext{precomp: precomp, full: full}
	initCtx := trace.WithRecorder(context.Background(), dual)
	if err := m.Init(initCtx, params, point, 0); err != nil {
		return nil, nil, nil, err
	}

	multCtx := trace.WithRecorder(context.Background(), full)
	out, err = m.Multiply(multCtx, scalar)
	if err != nil {
		return nil, nil, nil, err
	}
	return precomp, full, out, nil
}
