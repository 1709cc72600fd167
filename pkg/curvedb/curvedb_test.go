package curvedb

import (
	"context"
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/stretchr/testify/require"
)

func TestGetToyCurve(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	dp, err := db.Get("toy", "washington-17", "affine")
	require.NoError(t, err)
	require.Equal(t, "washington-17", dp.Name)
	require.Equal(t, "toy", dp.Category)
	require.Equal(t, big.NewInt(17), dp.Curve.Field)
	require.Equal(t, big.NewInt(19), dp.Order)
	require.Equal(t, big.NewInt(1), dp.Cofactor)
	require.Equal(t, big.NewInt(5), dp.Generator.Coords["x"].X())
	require.Equal(t, big.NewInt(1), dp.Generator.Coords["y"].X())

	// second Get call should hit the in-memory memo, not re-parse the JSON
	dp2, err := db.Get("toy", "washington-17", "affine")
	require.NoError(t, err)
	require.Same(t, dp, dp2)
}

func TestGetSecp256k1MatchesDecred(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	dp, err := db.Get("secg", "secp256k1", "affine")
	require.NoError(t, err)
	require.Equal(t, "secp256k1", dp.Name)
	require.NoError(t, VerifySecp256k1(dp))
}

func TestGetUnknownCurve(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get("toy", "does-not-exist", "affine")
	require.Error(t, err)
}

func TestGetUnknownCategory(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get("no-such-category", "x", "affine")
	require.Error(t, err)
}

func TestGetRejectsNonAffineCoordinates(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get("toy", "washington-17", "jacobian")
	require.Error(t, err)
}

// TestLoadedToyCurveMultiplies exercises the loaded domain parameters
// through an actual scalar multiplication, confirming the parsed
// parameters/generator are usable, not just structurally well-formed.
func TestLoadedToyCurveMultiplies(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	dp, err := db.Get("toy", "washington-17", "affine")
	require.NoError(t, err)

	affine := dp.Curve.CoordinateModel
	add := formula.New("affine-add", formula.KindAddition, affine)
	for _, o := range dp.Curve.Model.BaseAddition {
		add.Code = append(add.Code, o)
	}
	dbl := formula.New("affine-dbl", formula.KindDoubling, affine)
	for _, src := range []string{
		"s = (3 * x1^2 + a) / (2 * y1)",
		"x2 = s^2 - 2 * x1",
		"y2 = s * (x1 - x2) - y1",
	} {
		parsed, err := op.Parse(src)
		require.NoError(t, err)
		dbl.Code = append(dbl.Code, parsed)
	}

	m, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, m.Init(context.Background(), dp, dp.Generator, 0))

	result, err := m.Multiply(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), result.Coords["x"].X())
	require.Equal(t, big.NewInt(6), result.Coords["y"].X())
}
