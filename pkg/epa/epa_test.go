package epa

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/ecsim/ecsim/pkg/rpa"
	"github.com/stretchr/testify/require"
)

// toyParams mirrors pkg/rpa's test curve: y^2 = x^3 + 1 over F_23, a
// twelve-element subgroup generated by (1,5).
func toyParams(t *testing.T) *curve.DomainParameters {
	t.Helper()
	field := big.NewInt(23)
	model := curve.ShortWeierstrass()
	affine := curve.Affine(model)

	a, err := mod.FromInt64(0, field)
	require.NoError(t, err)
	b, err := mod.FromInt64(1, field)
	require.NoError(t, err)
	zero, err := mod.FromInt64(0, field)
	require.NoError(t, err)
	neutral, err := curve.NewPoint(affine, map[string]mod.Mod{"x": zero, "y": zero})
	require.NoError(t, err)
	ec, err := curve.NewEllipticCurve(model, affine, field, map[string]mod.Mod{"a": a, "b": b}, neutral)
	require.NoError(t, err)

	gx, err := mod.FromInt64(1, field)
	require.NoError(t, err)
	gy, err := mod.FromInt64(5, field)
	require.NoError(t, err)
	gen, err := curve.NewPoint(affine, map[string]mod.Mod{"x": gx, "y": gy})
	require.NoError(t, err)

	return &curve.DomainParameters{
		Curve:     ec,
		Generator: gen,
		Order:     big.NewInt(12),
		Cofactor:  big.NewInt(2),
		Name:      "toy23",
	}
}

func buildFormulas(t *testing.T, params *curve.DomainParameters) (add, dbl, neg *formula.Formula) {
	t.Helper()
	affine := params.Curve.CoordinateModel
	model := params.Curve.Model

	add = formula.New("affine-add", formula.KindAddition, affine)
	add.Code = append(add.Code, model.BaseAddition...)

	dbl = formula.New("affine-dbl", formula.KindDoubling, affine)
	for _, src := range []string{
		"s = (3 * x1^2 + a) / (2 * y1)",
		"x2 = s^2 - 2 * x1",
		"y2 = s * (x1 - x2) - y1",
	} {
		parsed, err := op.Parse(src)
		require.NoError(t, err)
		dbl.Code = append(dbl.Code, parsed)
	}

	neg = formula.New("affine-neg", formula.KindNegation, affine)
	for _, src := range []string{"x2 = x1", "y2 = -y1"} {
		parsed, err := op.Parse(src)
		require.NoError(t, err)
		neg.Code = append(neg.Code, parsed)
	}
	return
}

// TestErrorsOutLTR mirrors test_errors_out: an empty check set never
// fires, a check keyed on an "add" input multiple fires exactly when that
// multiple appears, and a check on the "affine" output multiple fires
// when it matches the scalar.
func TestErrorsOutLTR(t *testing.T) {
	params := toyParams(t)
	add, dbl, _ := buildFormulas(t, params)
	m, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	cand := rpa.Candidate{Name: "ltr", Factory: func() (rpa.Multiplier, error) { return m, nil }}

	precompCtx, fullCtx, out, err := rpa.MultipleGraph(params, cand, params.Generator, big.NewInt(7))
	require.NoError(t, err)

	empty, err := ErrorsOut(precompCtx, fullCtx, out, map[string]CheckFunc{}, CheckAll, true, true, true)
	require.NoError(t, err)
	require.False(t, empty)

	addSix, err := ErrorsOut(precompCtx, fullCtx, out, map[string]CheckFunc{
		"add": func(m ...int64) (bool, error) { return m[0] == 6, nil },
	}, CheckAll, true, true, true)
	require.NoError(t, err)
	require.True(t, addSix)

	affineSeven, err := ErrorsOut(precompCtx, fullCtx, out, map[string]CheckFunc{
		"affine": func(m ...int64) (bool, error) { return m[0] == 7, nil },
	}, CheckAll, true, true, true)
	require.NoError(t, err)
	require.True(t, affineSeven)
}

// TestEvaluateChecksAggregatesErrors confirms a malformed check on one
// formula doesn't swallow a real match found by another.
func TestEvaluateChecksAggregatesErrors(t *testing.T) {
	checkInputs := newCheckInputs()
	checkInputs.add("add", Tuple{1, 2})
	checkInputs.add("affine", Tuple{7})

	fired, err := EvaluateChecks(map[string]CheckFunc{
		"add":    func(m ...int64) (bool, error) { return false, fmt.Errorf("boom") },
		"affine": func(m ...int64) (bool, error) { return m[0] == 7, nil },
	}, checkInputs)
	require.Error(t, err)
	require.True(t, fired)
}

// TestGraphToCheckInputsWindowNAFPrecomp mirrors test_errors_out_precomp's
// phase-scoping assertions for a width-3 WindowNAF multiplier: precompute
// builds the single odd multiple 3 = add(1,2), and use_init/use_multiply
// correctly isolate that call from whatever the final multiply adds.
func TestGraphToCheckInputsWindowNAFPrecomp(t *testing.T) {
	params := toyParams(t)
	add, dbl, neg := buildFormulas(t, params)
	m, err := mult.NewWindowNAF(add, dbl, neg, nil, 3, mult.PeqPR, false)
	require.NoError(t, err)
	cand := rpa.Candidate{Name: "wnaf3", Factory: func() (rpa.Multiplier, error) { return m, nil }}

	precompCtx, fullCtx, out, err := rpa.MultipleGraph(params, cand, params.Generator, big.NewInt(7))
	require.NoError(t, err)

	initOnly, err := GraphToCheckInputs(precompCtx, fullCtx, out, CheckAll, true, true, false, nil)
	require.NoError(t, err)
	require.True(t, initOnly.Has("add"))
	addTuples := initOnly.Tuples("add")
	require.Len(t, addTuples, 1)
	require.ElementsMatch(t, Tuple{1, 2}, addTuples[0])

	both, err := GraphToCheckInputs(precompCtx, fullCtx, out, CheckAll, true, true, true, nil)
	require.NoError(t, err)
	require.True(t, len(both.Tuples("add")) >= len(addTuples))

	multiplyOnly, err := GraphToCheckInputs(precompCtx, fullCtx, out, CheckAll, true, false, true, nil)
	require.NoError(t, err)
	require.Len(t, multiplyOnly.Tuples("affine"), 1)
	require.Equal(t, fullCtx.Points[out], multiplyOnly.Tuples("affine")[0][0])
}

func TestGraphToCheckInputsRejectsNeitherPhase(t *testing.T) {
	params := toyParams(t)
	add, dbl, _ := buildFormulas(t, params)
	m, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	cand := rpa.Candidate{Name: "ltr", Factory: func() (rpa.Multiplier, error) { return m, nil }}
	precompCtx, fullCtx, out, err := rpa.MultipleGraph(params, cand, params.Generator, big.NewInt(7))
	require.NoError(t, err)

	_, err = GraphToCheckInputs(precompCtx, fullCtx, out, CheckAll, true, false, false, nil)
	require.Error(t, err)
}
