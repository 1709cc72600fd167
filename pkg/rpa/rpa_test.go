package rpa

import (
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/stretchr/testify/require"
)

// toyParams builds y^2 = x^3 + 1 over F_23: 23 affine points plus the
// point at infinity (24 in all), a generator
// (1,5) of order 12 (cofactor 2), with a y=0 point at (22,0) and x=0
// points at (0,1)/(0,22) — small enough to hand-verify PointX0/Point0Y
// and exercise Distinguish exhaustively.
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

func TestPointX0HasZeroY(t *testing.T) {
	params := toyParams(t)
	p, err := PointX0(params)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), p.Coords["y"].X())
	require.Equal(t, big.NewInt(22), p.Coords["x"].X())
}

func TestPoint0YHasZeroX(t *testing.T) {
	params := toyParams(t)
	p, err := Point0Y(params)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), p.Coords["x"].X())
}

// TestDistinguishRecoversRealMultiplier mirrors test_rpa.py's
// test_distinguish: an oracle built from one real multiplier
// configuration is queried over a trial batch built from the two RPA
// points, and Distinguish must return exactly that configuration.
func TestDistinguishRecoversRealMultiplier(t *testing.T) {
	params := toyParams(t)
	add, dbl, _ := buildFormulas(t, params)

	candidates := []Candidate{
		{Name: "ltr", Factory: func() (Multiplier, error) {
			return mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
		}},
		{Name: "rtl", Factory: func() (Multiplier, error) {
			return mult.NewRTL(add, dbl, nil, false, false, mult.PeqPR)
		}},
	}
	real := candidates[1] // rtl

	oracle := func(scalar *big.Int, point *curve.Point) (bool, error) {
		return Simulate(real, params, scalar, point)
	}

	one := big.NewInt(1)
	scalars := []*big.Int{one, big.NewInt(2), big.NewInt(3), big.NewInt(6), big.NewInt(11)}
	x0, err := PointX0(params)
	require.NoError(t, err)
	zy, err := Point0Y(params)
	require.NoError(t, err)
	var trials []Trial
	for _, s := range scalars {
		trials = append(trials, Trial{Scalar: s, Point: x0}, Trial{Scalar: s, Point: zy})
	}

	result, err := Distinguish(params, candidates, oracle, trials)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "rtl", result[0].Name)
}
