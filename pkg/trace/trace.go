// Package trace carries an optional execution observer through a
// context.Context, the idiomatic-Go replacement for pyecsca's
// contextvars-based Context/ContextManager singleton
// (pyecsca/ec/context.py). A caller that wants to record every formula
// execution (for side-channel simulation, RPA/EPA distinguishing, or
// debugging) installs a Recorder with WithRecorder; callers that don't
// care pay only a context lookup that resolves to the no-op recorder.
package trace

import (
	"context"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/op"
)

// Action is one recorded formula execution: inputs, every intermediate
// value in evaluation order, and outputs. It is the Go analogue of
// pyecsca's Action (pyecsca/ec/context.py).
type Action struct {
	FormulaName   string
	Inputs        map[string]mod.Mod
	Order         []string
	Intermediates map[string]mod.Mod
	Outputs       map[string]mod.Mod
}

// Recorder receives callbacks as a formula executes. Implementations must
// be safe to call sequentially from a single goroutine; the package makes
// no concurrency guarantees beyond that, matching pyecsca's single
// ContextVar-per-task-local model.
type Recorder interface {
	LogAction(formulaName string, inputs map[string]mod.Mod)
	LogOperation(o *op.CodeOp, value mod.Mod)
	LogResult(outputs map[string]mod.Mod)
}

// PointRecorder is an optional extension to Recorder: implementations that
// also want the actual *curve.Point operands of a formula call — not just
// their coordinate values, keyed by name — implement this too. pkg/rpa's
// MultipleContext is the motivating consumer: RPA needs to recognize a
// Point recurring as the input to a later formula, which coordinate-keyed
// maps alone cannot express (two different points can share a coordinate
// name like "X1" across calls). formula.Execute calls LogFormula after
// LogResult whenever the active recorder satisfies this interface.
type PointRecorder interface {
	Recorder
	LogFormula(formulaName, kind string, inputs, outputs []*curve.Point)
}

// PrecompRecorder is an optional extension for recorders that also want to
// observe precomputed points (window/NAF odd-multiple tables, ladder
// seed points) as they're produced during a multiplier's Init, separately
// from the main scalar loop — the Go analogue of pyecsca's
// PrecomputationAction.
type PrecompRecorder interface {
	Recorder
	MarkPrecomputed(p *curve.Point)
}

// NullRecorder discards everything, the default when no recorder has been
// installed, mirroring pyecsca's NullContext.
type NullRecorder struct{}

func (NullRecorder) LogAction(string, map[string]mod.Mod) {}
func (NullRecorder) LogOperation(*op.CodeOp, mod.Mod)     {}
func (NullRecorder) LogResult(map[string]mod.Mod)         {}

// Recording accumulates every Action into a slice, the analogue of
// pyecsca's DefaultContext.
type Recording struct {
	Actions []*Action
}

func NewRecording() *Recording {
	return &Recording{}
}

func (r *Recording) LogAction(formulaName string, inputs map[string]mod.Mod) {
	r.Actions = append(r.Actions, &Action{
		FormulaName:   formulaName,
		Inputs:        inputs,
		Intermediates: map[string]mod.Mod{},
		Outputs:       map[string]mod.Mod{},
	})
}

func (r *Recording) LogOperation(o *op.CodeOp, value mod.Mod) {
	if len(r.Actions) == 0 {
		return
	}
	cur := r.Actions[len(r.Actions)-1]
	cur.Order = append(cur.Order, o.Result)
	cur.Intermediates[o.Result] = value
}

func (r *Recording) LogResult(outputs map[string]mod.Mod) {
	if len(r.Actions) == 0 {
		return
	}
	cur := r.Actions[len(r.Actions)-1]
	for k, v := range outputs {
		cur.Outputs[k] = v
	}
}

type recorderKey struct{}

// WithRecorder returns a context carrying rec as the active recorder.
func WithRecorder(ctx context.Context, rec Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

// FromContext returns the active recorder, or NullRecorder if none was
// installed.
func FromContext(ctx context.Context) Recorder {
	if rec, ok := ctx.Value(recorderKey{}).(Recorder); ok {
		return rec
	}
	return NullRecorder{}
}
