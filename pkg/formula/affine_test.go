package formula

import (
	"context"
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/stretchr/testify/require"
)

func TestStandardAffineDoublesGenerator(t *testing.T) {
	n := big.NewInt(23)
	model := curve.ShortWeierstrass()
	affine := curve.Affine(model)
	a, err := mod.FromInt64(0, n)
	require.NoError(t, err)
	b, err := mod.FromInt64(1, n)
	require.NoError(t, err)
	zero, err := mod.FromInt64(0, n)
	require.NoError(t, err)
	neutral, err := curve.NewPoint(affine, map[string]mod.Mod{"x": zero, "y": zero})
	require.NoError(t, err)
	ec, err := curve.NewEllipticCurve(model, affine, n, map[string]mod.Mod{"a": a, "b": b}, neutral)
	require.NoError(t, err)

	gx, err := mod.FromInt64(1, n)
	require.NoError(t, err)
	gy, err := mod.FromInt64(5, n)
	require.NoError(t, err)
	g, err := curve.NewPoint(ec.CoordinateModel, map[string]mod.Mod{"x": gx, "y": gy})
	require.NoError(t, err)

	_, dbl, _ := StandardAffine(ec.CoordinateModel)
	outputs, _, err := dbl.Execute(context.Background(), n, []*curve.Point{g}, map[string]mod.Mod{"a": a, "b": b})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	require.False(t, outputs[0].Equal(g))
}
