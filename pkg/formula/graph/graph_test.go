package graph

import (
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/stretchr/testify/require"
)

func buildAffineDoubling(t *testing.T) *formula.Formula {
	t.Helper()
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	f := formula.New("affine-dbl", formula.KindDoubling, affine)
	require.NoError(t, f.AddOp("x2 = x1 + y1"))
	require.NoError(t, f.AddOp("y2 = x1 * y1"))
	return f
}

func TestBuildWiresInputsAndOutputs(t *testing.T) {
	f := buildAffineDoubling(t)
	g := Build(f)

	require.Contains(t, g.Nodes, "x1")
	require.Contains(t, g.Nodes, "y1")
	require.Contains(t, g.Nodes, "x2")
	require.Contains(t, g.Nodes, "y2")
	require.True(t, g.Nodes["x1"].Input)
	require.True(t, g.Nodes["x2"].Output)
	require.True(t, g.Nodes["y2"].Output)
	require.False(t, g.Nodes["x1"].Output)
}

func TestLevelsOrdersRootsFirst(t *testing.T) {
	f := buildAffineDoubling(t)
	g := Build(f)
	levels := g.Levels()
	require.NotEmpty(t, levels)
	for _, root := range levels[0] {
		require.True(t, root.Input)
	}
}

func TestToFormulaRoundTrips(t *testing.T) {
	f := buildAffineDoubling(t)
	g := Build(f)
	g.Reorder()
	out := g.ToFormula("rebuilt")

	require.Equal(t, f.Kind, out.Kind)
	require.Equal(t, f.Coords, out.Coords)
	require.Len(t, out.Code, len(f.Code))

	sources := map[string]bool{}
	for _, o := range out.Code {
		sources[o.Source] = true
	}
	require.True(t, sources["x2 = x1 + y1"])
	require.True(t, sources["y2 = x1 * y1"])
}

func TestEliminateDuplicateOpsMergesIdenticalComputations(t *testing.T) {
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	f := formula.New("dup", formula.KindDoubling, affine)
	require.NoError(t, f.AddOp("s = x1 + y1"))
	require.NoError(t, f.AddOp("t = x1 + y1"))
	require.NoError(t, f.AddOp("x2 = s * t"))
	require.NoError(t, f.AddOp("y2 = t - s"))

	g := Build(f)
	removed := g.EliminateDuplicateOps()
	require.Equal(t, 1, removed)
	require.NotContains(t, g.Nodes, "t")
}

func TestFliparooCanonicalizesCommutativeOperandOrder(t *testing.T) {
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	f := formula.New("fliparoo", formula.KindDoubling, affine)
	require.NoError(t, f.AddOp("s = x1 + y1"))
	require.NoError(t, f.AddOp("t = y1 + x1"))
	require.NoError(t, f.AddOp("x2 = s * t"))
	require.NoError(t, f.AddOp("y2 = t"))

	g := Build(f)
	changed := g.Fliparoo()
	require.Equal(t, 1, changed) // only "t" has out-of-order operands

	removed := g.EliminateDuplicateOps()
	require.Equal(t, 1, removed)
	require.NotContains(t, g.Nodes, "t")
}

func TestSwitchSignFoldsNegationIntoConsumers(t *testing.T) {
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	f := formula.New("switch-sign", formula.KindDoubling, affine)
	require.NoError(t, f.AddOp("z = -x1"))
	require.NoError(t, f.AddOp("x2 = y1 + z"))
	require.NoError(t, f.AddOp("y2 = y1 - z"))

	g := Build(f)
	changed := g.SwitchSign()
	require.Equal(t, 2, changed)
	require.NotContains(t, g.Nodes, "z")
	require.Equal(t, "x2 = (y1 - x1)", g.Nodes["x2"].Op.Source)
	require.Equal(t, "y2 = (y1 + x1)", g.Nodes["y2"].Op.Source)
}

func TestSwitchSignKeepsNegationNodeThatIsAnOutput(t *testing.T) {
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	f := formula.New("switch-sign-output", formula.KindNegation, affine)
	require.NoError(t, f.AddOp("x2 = x1"))
	require.NoError(t, f.AddOp("y2 = -y1"))

	g := Build(f)
	g.SwitchSign()
	require.Contains(t, g.Nodes, "y2")
}
