package op

import (
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleAssignment(t *testing.T) {
	o, err := Parse("Z3 = Z1*Z2")
	require.NoError(t, err)
	assert.Equal(t, "Z3", o.Result)
	assert.Empty(t, o.Parameters)
	assert.Equal(t, []string{"Z1", "Z2"}, o.Variables)
	assert.Equal(t, byte('*'), o.Operator)
}

func TestParseWithCurveConstant(t *testing.T) {
	o, err := Parse("t1 = a*X1^2")
	require.NoError(t, err)
	assert.Equal(t, "t1", o.Result)
	assert.Contains(t, o.Parameters, "a")
	assert.Contains(t, o.Variables, "X1")
}

func TestCallEvaluatesArithmetic(t *testing.T) {
	n := big.NewInt(97)
	o, err := Parse("z3 = x1*x2 + 2")
	require.NoError(t, err)

	x1 := mod.MustNew(big.NewInt(5), n)
	x2 := mod.MustNew(big.NewInt(6), n)
	env := map[string]mod.Mod{"x1": x1, "x2": x2}

	result, err := o.Call(env, n)
	require.NoError(t, err)
	assert.Equal(t, "32", result.String()) // 5*6+2 = 32 mod 97
}

func TestCallMissingBinding(t *testing.T) {
	n := big.NewInt(97)
	o, err := Parse("z3 = x1*x2")
	require.NoError(t, err)
	_, err = o.Call(map[string]mod.Mod{"x1": mod.MustNew(big.NewInt(1), n)}, n)
	assert.Error(t, err)
}

func TestParseRejectsMissingAssignment(t *testing.T) {
	_, err := Parse("x1 + x2")
	assert.Error(t, err)
}
