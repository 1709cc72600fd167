// Package formula implements Formula, a compiled sequence of CodeOps that
// transforms input points of a coordinate model into output points.
// Ported from pyecsca's Formula/CodeFormula/EFDFormula
// (pyecsca/ec/formula/base.py, code.py, efd.py).
package formula

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/ecsim/ecsim/internal/ecslog"
	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/ecsim/ecsim/pkg/trace"
)

// Kind distinguishes the shape of a formula: how many points it consumes
// and how many it produces. Mirrors the AdditionFormula/DoublingFormula/...
// class hierarchy, collapsed into a single enum since Go formulas compose
// by field rather than by inheritance.
type Kind struct {
	Shortname  string
	NumInputs  int
	NumOutputs int
}

var (
	KindAddition             = Kind{"add", 2, 1}
	KindDoubling             = Kind{"dbl", 1, 1}
	KindTripling             = Kind{"tpl", 1, 1}
	KindNegation             = Kind{"neg", 1, 1}
	KindScaling              = Kind{"scl", 1, 1}
	KindDifferentialAddition = Kind{"dadd", 3, 1}
	KindLadder               = Kind{"ladd", 3, 2}
)

// Formula is a named, typed sequence of CodeOps over a coordinate model.
// It satisfies curve.Formula so a CoordinateModel can hold a registry of
// these without importing this package.
type Formula struct {
	FormulaName string
	Kind        Kind
	Coords      *curve.CoordinateModel
	Meta        map[string]string
	Parameters  []string
	Assumptions []*op.CodeOp
	Code        []*op.CodeOp
	Unified     bool
}

func New(name string, kind Kind, coords *curve.CoordinateModel) *Formula {
	return &Formula{FormulaName: name, Kind: kind, Coords: coords, Meta: map[string]string{}}
}

func (f *Formula) Name() string       { return f.FormulaName }
func (f *Formula) Shortname() string  { return f.Kind.Shortname }
func (f *Formula) NumInputs() int     { return f.Kind.NumInputs }
func (f *Formula) NumOutputs() int    { return f.Kind.NumOutputs }

// AddAssumption parses and appends a raw "lhs = rhs" assumption line (the
// "=" is the meta-file spelling; pyecsca rewrites it to "==" only to parse
// it as a boolean expression, a step this simplified evaluator skips by
// treating assumptions purely as parameter-defining or point-checking
// assignments).
func (f *Formula) AddAssumption(line string) error {
	parsed, err := op.Parse(line)
	if err != nil {
		return fmt.Errorf("formula: parsing assumption: %w", err)
	}
	f.Assumptions = append(f.Assumptions, parsed)
	return nil
}

// AddOp parses and appends one op3 code line.
func (f *Formula) AddOp(line string) error {
	parsed, err := op.Parse(line)
	if err != nil {
		return fmt.Errorf("formula: parsing op: %w", err)
	}
	f.Code = append(f.Code, parsed)
	return nil
}

// Trace records one executed formula, the Go analogue of pyecsca's
// FormulaAction (pyecsca/ec/formula/base.py): the sequence of
// intermediate values computed, in order, keyed by their CodeOp's result
// name, for later consumption by a leakage-simulating Context.
type Trace struct {
	Formula *Formula
	Order   []string
	Values  map[string]mod.Mod
}

// Execute runs the formula against field, the given input points (exactly
// NumInputs of them, all in f.Coords), and any extra curve parameters
// (e.g. "a","b") needed by the formula's ops. It returns NumOutputs points
// plus an execution Trace. If ctx carries a trace.Recorder (trace.WithRecorder),
// every intermediate and the final inputs/outputs are reported to it —
// the Go replacement for pyecsca's Context._log_action/_log_operation/_log_result
// hooks (pyecsca/ec/context.py).
func (f *Formula) Execute(ctx context.Context, field *big.Int, points []*curve.Point, params map[string]mod.Mod) ([]*curve.Point, *Trace, error) {
	if len(points) != f.NumInputs() {
		return nil, nil, fmt.Errorf("formula: %s wants %d inputs, got %d", f.FormulaName, f.NumInputs(), len(points))
	}
	rec := trace.FromContext(ctx)
	env := map[string]mod.Mod{}
	for k, v := range params {
		env[k] = v
	}
	for i, p := range points {
		if p.Model != f.Coords {
			return nil, nil, fmt.Errorf("formula: %w: point %d not in coordinate model %s", ecerrors.InputMismatch, i, f.Coords.Name)
		}
		suffix := fmt.Sprintf("%d", i+1)
		for coord, v := range p.Coords {
			env[coord+suffix] = v
		}
	}

	if err := f.resolveAssumptions(field, env); err != nil {
		return nil, nil, err
	}

	rec.LogAction(f.FormulaName, env)

	tr := &Trace{Formula: f, Values: map[string]mod.Mod{}}
	for _, o := range f.Code {
		result, err := o.Call(env, field)
		if err != nil {
			return nil, nil, fmt.Errorf("formula: %s executing %q: %w", f.FormulaName, o.Source, err)
		}
		env[o.Result] = result
		tr.Order = append(tr.Order, o.Result)
		tr.Values[o.Result] = result
		rec.LogOperation(o, result)
	}

	outputs := make([]*curve.Point, f.NumOutputs())
	finalCoords := map[string]mod.Mod{}
	for i := 0; i < f.NumOutputs(); i++ {
		suffix := fmt.Sprintf("%d", f.NumInputs()+1+i)
		coords := map[string]mod.Mod{}
		for _, v := range f.Coords.Variables {
			val, ok := env[v+suffix]
			if !ok {
				return nil, nil, fmt.Errorf("formula: %s produced no output coordinate %s%s", f.FormulaName, v, suffix)
			}
			coords[v] = val
			finalCoords[v+suffix] = val
		}
		out, err := curve.NewPoint(f.Coords, coords)
		if err != nil {
			return nil, nil, err
		}
		outputs[i] = out
	}
	rec.LogResult(finalCoords)
	if pr, ok := rec.(trace.PointRecorder); ok {
		pr.LogFormula(f.FormulaName, f.Kind.Shortname, points, outputs)
	}
	return outputs, tr, nil
}

// resolveAssumptions evaluates simple parameter-defining assumptions
// (e.g. "half = 1/2") against env, binding the left-hand side. Point-value
// assumptions (e.g. "Z1 = 1") are checked against already-bound
// coordinates and, if unsatisfied, dispatched through the configured
// unsatisfied-assumption policy. This is a deliberate simplification of
// pyecsca's sympy-backed assumption solver (base.py's
// __validate_assumption_generic), which can solve for a parameter
// appearing anywhere in a polynomial; only the two common shapes EFD
// formulas actually use are handled here.
func (f *Formula) resolveAssumptions(field *big.Int, env map[string]mod.Mod) error {
	for _, a := range f.Assumptions {
		value, err := f.evalAssumption(a, field, env)
		if err != nil {
			return err
		}
		if existing, bound := env[a.Result]; bound {
			if !existing.Equal(value) {
				return f.unsatisfied(a.Source)
			}
			continue
		}
		env[a.Result] = value
	}
	return nil
}

// evalAssumption evaluates a against env under field, consulting
// assumptionCache first when the operands involved are concrete.
func (f *Formula) evalAssumption(a *op.CodeOp, field *big.Int, env map[string]mod.Mod) (mod.Mod, error) {
	key, cacheable := assumptionCacheKey(a, field, env)
	if cacheable {
		if cached, ok := getAssumptionCache().Get(key); ok {
			return cached.(mod.Mod), nil
		}
	}
	value, err := a.Call(env, field)
	if err != nil {
		return nil, fmt.Errorf("formula: evaluating assumption %q: %w", a.Source, err)
	}
	if cacheable {
		getAssumptionCache().Add(key, value)
	}
	return value, nil
}

func (f *Formula) unsatisfied(assumption string) error {
	action := ecsconfig.Current().UnsatisfiedFormulaAssumptionAction
	msg := fmt.Sprintf("unsatisfied assumption in formula %s: %s", f.FormulaName, assumption)
	switch action {
	case ecsconfig.ActionError:
		return ecerrors.NewUnsatisfiedAssumption(msg)
	case ecsconfig.ActionWarning:
		ecslog.With("formula").Warn(msg)
		return nil
	default:
		return nil
	}
}
