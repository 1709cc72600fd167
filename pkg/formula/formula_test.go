package formula

import (
	"context"
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAffineDoubling constructs a trivial affine-coordinate doubling
// formula (x2 = x1 + y1, y2 = x1 * y1, as a standin computation) purely to exercise
// Execute's plumbing, independent of any real EFD formula data.
func buildAffineDoubling(t *testing.T) (*Formula, *curve.CoordinateModel) {
	t.Helper()
	model := curve.ShortWeierstrass()
	coords := curve.NewCoordinateModel(model, "test-affine", "Test affine", []string{"x", "y"})
	f := New("dbl-test", KindDoubling, coords)
	require.NoError(t, f.AddOp("x2 = x1 + y1"))
	require.NoError(t, f.AddOp("y2 = x1 * y1"))
	coords.RegisterFormula(f)
	return f, coords
}

func TestFormulaExecute(t *testing.T) {
	f, coords := buildAffineDoubling(t)
	n := big.NewInt(97)
	p, err := curve.NewPoint(coords, map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(3), n),
		"y": mod.MustNew(big.NewInt(4), n),
	})
	require.NoError(t, err)

	outputs, tr, err := f.Execute(context.Background(), n, []*curve.Point{p}, nil)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "7", outputs[0].Coords["x"].String())
	assert.Equal(t, "12", outputs[0].Coords["y"].String())
	assert.Equal(t, []string{"x2", "y2"}, tr.Order)
}

func TestFormulaExecuteRecordsTrace(t *testing.T) {
	f, coords := buildAffineDoubling(t)
	n := big.NewInt(97)
	p, err := curve.NewPoint(coords, map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(3), n),
		"y": mod.MustNew(big.NewInt(4), n),
	})
	require.NoError(t, err)

	rec := trace.NewRecording()
	ctx := trace.WithRecorder(context.Background(), rec)
	_, _, err = f.Execute(ctx, n, []*curve.Point{p}, nil)
	require.NoError(t, err)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, "dbl-test", rec.Actions[0].FormulaName)
	assert.Len(t, rec.Actions[0].Order, 2)
}

func TestFormulaExecuteWrongInputCount(t *testing.T) {
	f, coords := buildAffineDoubling(t)
	n := big.NewInt(97)
	p, err := curve.NewPoint(coords, map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(1), n),
		"y": mod.MustNew(big.NewInt(1), n),
	})
	require.NoError(t, err)
	_, _, err = f.Execute(context.Background(), n, []*curve.Point{p, p}, nil)
	assert.Error(t, err)
}

// TestFormulaExecuteAssumptionCacheHit exercises both branches
// resolveAssumptions takes: "half" is unbound and gets resolved, "Z1" is
// already bound (as the input point's coordinate) and gets checked. Both
// are deterministic given (source, field, operands), so running the same
// formula twice must hit assumptionCache the second time and still
// produce identical results.
func TestFormulaExecuteAssumptionCacheHit(t *testing.T) {
	model := curve.ShortWeierstrass()
	coords := curve.NewCoordinateModel(model, "test-proj", "Test projective", []string{"X", "Y", "Z"})
	f := New("dbl-assump-test", KindDoubling, coords)
	require.NoError(t, f.AddAssumption("half = 1/2"))
	require.NoError(t, f.AddAssumption("Z1 = 1"))
	require.NoError(t, f.AddOp("X2 = X1 + half"))
	require.NoError(t, f.AddOp("Y2 = Y1"))
	require.NoError(t, f.AddOp("Z2 = Z1"))
	coords.RegisterFormula(f)

	n := big.NewInt(97)
	p, err := curve.NewPoint(coords, map[string]mod.Mod{
		"X": mod.MustNew(big.NewInt(3), n),
		"Y": mod.MustNew(big.NewInt(4), n),
		"Z": mod.MustNew(big.NewInt(1), n),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		outputs, _, err := f.Execute(context.Background(), n, []*curve.Point{p}, nil)
		require.NoError(t, err)
		assert.Equal(t, "52", outputs[0].Coords["X"].String())
	}

	key, ok := assumptionCacheKey(f.Assumptions[0], n, map[string]mod.Mod{})
	require.True(t, ok)
	_, hit := getAssumptionCache().Get(key)
	assert.True(t, hit)
}
