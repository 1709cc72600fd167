// Package epa implements Exceptional Procedure Attack re-engineering:
// given the multiple-graphs pkg/rpa's MultipleGraph produces for a scalar
// multiplication, decide whether a family of "does this formula call
// error out" predicates would have fired anywhere along the computation.
// Ported from pyecsca's graph_to_check_inputs/evaluate_checks/errors_out
// (pyecsca/sca/re/epa.py).
package epa

import (
	"fmt"
	"strconv"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/rpa"
	"go.uber.org/multierr"
)

// CheckCondition selects which points in the graph get checked.
type CheckCondition string

const (
	// CheckAll checks every point the graph tracks.
	CheckAll CheckCondition = "all"
	// CheckNecessary checks only points reachable, by formula-parent
	// edges, from the points that actually get converted to affine.
	CheckNecessary CheckCondition = "necessary"
)

// Tuple is one formula call's input multiples, in argument order.
type Tuple []int64

func (t Tuple) key() string {
	buf := make([]byte, 0, len(t)*8)
	for _, v := range t {
		buf = strconv.AppendInt(buf, v, 10)
		buf = append(buf, ',')
	}
	return string(buf)
}

// CheckInputs maps a formula's shortname (or the synthetic "affine" name)
// to the set of distinct input-multiple tuples it was called with.
type CheckInputs struct {
	sets map[string]map[string]Tuple
}

func newCheckInputs() CheckInputs {
	return CheckInputs{sets: map[string]map[string]Tuple{}}
}

func (c CheckInputs) add(formula string, t Tuple) {
	set, ok := c.sets[formula]
	if !ok {
		set = map[string]Tuple{}
		c.sets[formula] = set
	}
	set[t.key()] = t
}

// Has reports whether any tuple was recorded for formula.
func (c CheckInputs) Has(formula string) bool {
	_, ok := c.sets[formula]
	return ok
}

// Tuples returns the distinct input-multiple tuples recorded for formula,
// in no particular order.
func (c CheckInputs) Tuples(formula string) []Tuple {
	set := c.sets[formula]
	out := make([]Tuple, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	return out
}

// Formulas lists every formula name (including "affine") that has at
// least one recorded tuple.
func (c CheckInputs) Formulas() []string {
	names := make([]string, 0, len(c.sets))
	for name := range c.sets {
		names = append(names, name)
	}
	return names
}

// GraphToCheckInputs walks precompCtx/fullCtx (as produced by
// rpa.MultipleGraph) and collects, for every formula call the multiplier
// made, the tuple of input multiples — plus a synthetic "affine" entry
// for every point that gets converted to affine coordinates. Which
// points count as "converted to affine" depends on precompToAffine,
// useInit and useMultiply: precomputed points (window/NAF tables, ladder
// seeds) only count if precompToAffine is set and useInit is set; the
// final output always counts if useMultiply is set.
//
// checkFormulas, if non-nil, restricts which formula names are even
// considered — formulas outside the set are skipped entirely (their
// calls neither appear nor get checked).
func GraphToCheckInputs(
	precompCtx, fullCtx *rpa.MultipleContext,
	out *curve.Point,
	condition CheckCondition,
	precompToAffine, useInit, useMultiply bool,
	checkFormulas map[string]bool,
) (CheckInputs, error) {
	if !useInit && !useMultiply {
		return CheckInputs{}, fmt.Errorf("epa: %w: at least one of useInit or useMultiply must be true", ecerrors.InputMismatch)
	}

	affinePoints := map[*curve.Point]struct{}{}
	switch {
	case useInit && useMultiply:
		affinePoints[out] = struct{}{}
		if precompToAffine {
			for _, p := range precompCtx.Precomp {
				affinePoints[p] = struct{}{}
			}
		}
	case useInit:
		if precompToAffine {
			for _, p := range precompCtx.Precomp {
				affinePoints[p] = struct{}{}
			}
		}
	case useMultiply:
		affinePoints[out] = struct{}{}
	}

	var points map[*curve.Point]struct{}
	switch condition {
	case CheckAll:
		points = map[*curve.Point]struct{}{}
		switch {
		case useInit && useMultiply:
			for p := range fullCtx.Points {
				points[p] = struct{}{}
			}
		case useInit:
			for p := range precompCtx.Points {
				points[p] = struct{}{}
			}
		case useMultiply:
			for p := range fullCtx.Points {
				if _, ok := precompCtx.Points[p]; !ok {
					points[p] = struct{}{}
				}
			}
		}
	case CheckNecessary:
		nec := necessaryPoints(fullCtx, out, affinePoints)
		points = map[*curve.Point]struct{}{}
		switch {
		case useInit && useMultiply:
			points = nec
		case useInit:
			for p := range nec {
				if _, ok := precompCtx.Points[p]; ok {
					points[p] = struct{}{}
				}
			}
		case useMultiply:
			for p := range nec {
				if _, ok := precompCtx.Points[p]; !ok {
					points[p] = struct{}{}
				}
			}
		}
	default:
		return CheckInputs{}, fmt.Errorf("epa: %w: check_condition must be %q or %q", ecerrors.InputMismatch, CheckAll, CheckNecessary)
	}

	result := newCheckInputs()
	for p := range affinePoints {
		result.add("affine", Tuple{fullCtx.Points[p]})
	}

	for p := range points {
		formulaName, ok := fullCtx.Formulas[p]
		if !ok || formulaName == "" {
			continue
		}
		if checkFormulas != nil && !checkFormulas[formulaName] {
			continue
		}
		parents := fullCtx.Parents[p]
		tup := make(Tuple, len(parents))
		for i, parent := range parents {
			tup[i] = fullCtx.Points[parent]
		}
		result.add(formulaName, tup)
	}
	return result, nil
}

// necessaryPoints traces formula-parent edges backward from every point in
// forWhat, returning that closure (everything that had to be computed to
// produce those points) plus out itself; out's own parents are not
// followed.
func necessaryPoints(ctx *rpa.MultipleContext, out *curve.Point, forWhat map[*curve.Point]struct{}) map[*curve.Point]struct{} {
	res := map[*curve.Point]struct{}{out: {}}
	var queue []*curve.Point
	seen := map[*curve.Point]struct{}{}
	for p := range forWhat {
		queue = append(queue, p)
		seen[p] = struct{}{}
	}
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, parent := range ctx.Parents[p] {
			res[parent] = struct{}{}
			if _, ok := seen[parent]; !ok {
				seen[parent] = struct{}{}
				queue = append(queue, parent)
			}
		}
	}
	return res
}

// CheckFunc is one exceptional-procedure predicate: for a binary formula
// (e.g. "add") it's called with two input multiples, for a unary one
// (e.g. "affine", "neg", "dbl") with one. A true return means this
// particular call would have errored out; an error return means the
// tuple didn't match what this check expects (e.g. a binary check handed
// a formula name whose calls it didn't mean to cover).
type CheckFunc func(multiples ...int64) (bool, error)

// EvaluateChecks applies every check in checkFuncs to the matching
// formula's recorded call tuples. Unlike a single pass that returns on
// the first error, every tuple is evaluated and every check error is
// collected via multierr — a malformed check on one formula shouldn't
// hide whether a different, well-formed check elsewhere actually fired.
// The bool result is true iff any call triggered its check.
func EvaluateChecks(checkFuncs map[string]CheckFunc, checkInputs CheckInputs) (bool, error) {
	var errs error
	fired := false
	for name, fn := range checkFuncs {
		if !checkInputs.Has(name) {
			continue
		}
		for _, tup := range checkInputs.Tuples(name) {
			ok, err := fn(tup...)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("epa: check %q on inputs %v: %w", name, []int64(tup), err))
				continue
			}
			if ok {
				fired = true
			}
		}
	}
	return fired, errs
}

// ErrorsOut combines GraphToCheckInputs and EvaluateChecks: whether the
// scalar multiplication that produced precompCtx/fullCtx/out would have
// hit any of checkFuncs' exceptional conditions.
func ErrorsOut(
	precompCtx, fullCtx *rpa.MultipleContext,
	out *curve.Point,
	checkFuncs map[string]CheckFunc,
	condition CheckCondition,
	precompToAffine, useInit, useMultiply bool,
) (bool, error) {
	checkInputs, err := GraphToCheckInputs(precompCtx, fullCtx, out, condition, precompToAffine, useInit, useMultiply, nil)
	if err != nil {
		return false, err
	}
	return EvaluateChecks(checkFuncs, checkInputs)
}
