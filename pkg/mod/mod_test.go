package mod

import (
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrime = big.NewInt(2147483647) // 2^31 - 1, Mersenne prime

func TestModLaws(t *testing.T) {
	n := testPrime
	a := MustNew(big.NewInt(12345), n)
	b := MustNew(big.NewInt(67890), n)
	c := MustNew(big.NewInt(13579), n)

	ab, err := a.Add(b)
	require.NoError(t, err)
	abc, err := ab.Add(c)
	require.NoError(t, err)

	bc, err := b.Add(c)
	require.NoError(t, err)
	abc2, err := a.Add(bc)
	require.NoError(t, err)
	assert.True(t, abc.Equal(abc2), "addition must associate")

	bPlusC, err := b.Add(c)
	require.NoError(t, err)
	left, err := a.Mul(bPlusC)
	require.NoError(t, err)
	ab1, err := a.Mul(b)
	require.NoError(t, err)
	ac1, err := a.Mul(c)
	require.NoError(t, err)
	right, err := ab1.Add(ac1)
	require.NoError(t, err)
	assert.True(t, left.Equal(right), "multiplication must distribute over addition")

	inv, err := a.Inverse()
	require.NoError(t, err)
	one, err := a.Mul(inv)
	require.NoError(t, err)
	assert.Equal(t, "1", one.String())

	res, err := a.IsResidue()
	require.NoError(t, err)
	if res {
		root, err := a.Sqrt()
		require.NoError(t, err)
		sq, err := root.Mul(root)
		require.NoError(t, err)
		assert.True(t, sq.Equal(a))
	}
}

func TestModulusMismatch(t *testing.T) {
	a := MustNew(big.NewInt(1), big.NewInt(7))
	b := MustNew(big.NewInt(1), big.NewInt(11))
	_, err := a.Add(b)
	assert.Error(t, err)
}

func TestNonInvertiblePolicy(t *testing.T) {
	n := big.NewInt(15) // composite: 3 is not invertible mod 15
	zero := MustNew(big.NewInt(3), n)

	t.Run("error", func(t *testing.T) {
		cfg := ecsconfig.Default()
		cfg.NoInverseAction = ecsconfig.ActionError
		err := ecsconfig.WithConfig(cfg, func() error {
			_, err := zero.Inverse()
			return err
		})
		assert.Error(t, err)
	})

	t.Run("warning", func(t *testing.T) {
		cfg := ecsconfig.Default()
		cfg.NoInverseAction = ecsconfig.ActionWarning
		err := ecsconfig.WithConfig(cfg, func() error {
			_, err := zero.Inverse()
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("ignore", func(t *testing.T) {
		cfg := ecsconfig.Default()
		cfg.NoInverseAction = ecsconfig.ActionIgnore
		err := ecsconfig.WithConfig(cfg, func() error {
			_, err := zero.Inverse()
			return err
		})
		assert.NoError(t, err)
	})
}

func TestFixedBackendMatchesRaw(t *testing.T) {
	cfg := ecsconfig.Default()
	cfg.ModImplementation = ecsconfig.ModFixed
	n := testPrime
	err := ecsconfig.WithConfig(cfg, func() error {
		a, err := New(big.NewInt(123456), n)
		require.NoError(t, err)
		_, isFixed := a.(*fixedMod)
		assert.True(t, isFixed)

		b, err := New(big.NewInt(654321), n)
		require.NoError(t, err)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "777777", sum.String())
		return nil
	})
	require.NoError(t, err)
}

func TestUndefinedFails(t *testing.T) {
	_, err := Undefined.Add(Undefined)
	assert.Error(t, err)
	_, err = Undefined.Inverse()
	assert.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	n := testPrime
	a := MustNew(big.NewInt(42), n)
	b, err := a.Bytes()
	require.NoError(t, err)
	assert.Equal(t, 4, len(b)) // ceil(31/8) = 4
	assert.Equal(t, int64(42), new(big.Int).SetBytes(b).Int64())
}
