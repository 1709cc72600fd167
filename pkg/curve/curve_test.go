package curve

import (
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyCurve is y^2 = x^3 + 2x + 2 over F_17, a textbook example (Washington,
// Elliptic Curves, example 2.5) with a known point count of 19 and
// generator (5,1).
func toyCurve(t *testing.T) (*EllipticCurve, *big.Int) {
	t.Helper()
	n := big.NewInt(17)
	m := ShortWeierstrass()
	affine := Affine(m)
	params := map[string]mod.Mod{
		"a": mod.MustNew(big.NewInt(2), n),
		"b": mod.MustNew(big.NewInt(2), n),
	}
	ec, err := NewEllipticCurve(m, affine, n, params, nil)
	require.NoError(t, err)
	return ec, n
}

func point(t *testing.T, ec *EllipticCurve, n *big.Int, x, y int64) *Point {
	t.Helper()
	p, err := NewPoint(Affine(ec.Model), map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(x), n),
		"y": mod.MustNew(big.NewInt(y), n),
	})
	require.NoError(t, err)
	return p
}

func TestAffineDoubleToyCurve(t *testing.T) {
	ec, n := toyCurve(t)
	g := point(t, ec, n, 5, 1)
	double, err := ec.AffineDouble(g)
	require.NoError(t, err)
	// 2*(5,1) = (6,3) on this curve (standard textbook result).
	assert.Equal(t, "6", double.Coords["x"].String())
	assert.Equal(t, "3", double.Coords["y"].String())
}

func TestAffineAddToyCurve(t *testing.T) {
	ec, n := toyCurve(t)
	g := point(t, ec, n, 5, 1)
	double, err := ec.AffineDouble(g)
	require.NoError(t, err)
	triple, err := ec.AffineAdd(double, g)
	require.NoError(t, err)
	// 3*(5,1) = (10,6).
	assert.Equal(t, "10", triple.Coords["x"].String())
	assert.Equal(t, "6", triple.Coords["y"].String())
}

func TestAffineNegate(t *testing.T) {
	ec, n := toyCurve(t)
	g := point(t, ec, n, 5, 1)
	neg, err := ec.AffineNegate(g)
	require.NoError(t, err)
	assert.Equal(t, "5", neg.Coords["x"].String())
	assert.Equal(t, "16", neg.Coords["y"].String()) // -1 mod 17

	// g + (-g) hits the addition law's pole (x1 == x2): the affine formula
	// can't express the point at infinity, so this is expected to error.
	_, err = ec.AffineAdd(g, neg)
	assert.Error(t, err)
}
