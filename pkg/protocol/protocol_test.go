package protocol

import (
	"context"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/stretchr/testify/require"
)

func affineFormulas(m *curve.Model) (add, dbl *formula.Formula) {
	affine := curve.Affine(m)

	add = formula.New("affine-add", formula.KindAddition, affine)
	for _, o := range m.BaseAddition {
		add.Code = append(add.Code, o)
	}

	dbl = formula.New("affine-dbl", formula.KindDoubling, affine)
	for _, src := range []string{
		"s = (3 * x1^2 + a) / (2 * y1)",
		"x2 = s^2 - 2 * x1",
		"y2 = s * (x1 - x2) - y1",
	} {
		parsed, err := op.Parse(src)
		if err != nil {
			panic(err)
		}
		dbl.Code = append(dbl.Code, parsed)
	}
	return
}

func toyParams(t *testing.T) (*curve.DomainParameters, *curve.Point, *big.Int) {
	t.Helper()
	n := big.NewInt(17)
	m := curve.ShortWeierstrass()
	affine := curve.Affine(m)
	params := map[string]mod.Mod{
		"a": mod.MustNew(big.NewInt(2), n),
		"b": mod.MustNew(big.NewInt(2), n),
	}
	neutral, err := curve.NewPoint(affine, map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(0), n),
		"y": mod.MustNew(big.NewInt(0), n),
	})
	require.NoError(t, err)
	ec, err := curve.NewEllipticCurve(m, affine, n, params, neutral)
	require.NoError(t, err)
	g, err := curve.NewPoint(affine, map[string]mod.Mod{
		"x": mod.MustNew(big.NewInt(5), n),
		"y": mod.MustNew(big.NewInt(1), n),
	})
	require.NoError(t, err)
	dp := &curve.DomainParameters{Curve: ec, Generator: g, Order: big.NewInt(19), Cofactor: big.NewInt(1)}
	return dp, g, n
}

func TestKeygenProducesPointOnCurve(t *testing.T) {
	params, g, _ := toyParams(t)
	add, dbl := affineFormulas(params.Curve.Model)
	m, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, m.Init(context.Background(), params, g, 0))

	priv, pub, err := Keygen(context.Background(), m, params)
	require.NoError(t, err)
	require.True(t, priv.Sign() > 0)
	require.NotNil(t, pub.Coords["x"])
}

func TestECDHAgreement(t *testing.T) {
	params, g, n := toyParams(t)
	add, dbl := affineFormulas(params.Curve.Model)

	mA, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, mA.Init(context.Background(), params, g, 0))
	privA, pubA, err := Keygen(context.Background(), mA, params)
	require.NoError(t, err)

	mB, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, mB.Init(context.Background(), params, g, 0))
	privB, pubB, err := Keygen(context.Background(), mB, params)
	require.NoError(t, err)

	mSharedA, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, mSharedA.Init(context.Background(), params, pubB, 0))
	secretA, err := ECDH(context.Background(), mSharedA, privA, n, nil)
	require.NoError(t, err)

	mSharedB, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, mSharedB.Init(context.Background(), params, pubA, 0))
	secretB, err := ECDH(context.Background(), mSharedB, privB, n, nil)
	require.NoError(t, err)

	require.Equal(t, secretA, secretB)
}

func TestSignVerifyDeterministic(t *testing.T) {
	params, g, _ := toyParams(t)
	add, dbl := affineFormulas(params.Curve.Model)

	genMult, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, genMult.Init(context.Background(), params, g, 0))
	priv, pub, err := Keygen(context.Background(), genMult, params)
	require.NoError(t, err)

	genMult2, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, genMult2.Init(context.Background(), params, g, 0))

	pubMult, err := mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	require.NoError(t, err)
	require.NoError(t, pubMult.Init(context.Background(), params, pub, 0))

	signer := &Signer{
		GenMult:       genMult2,
		PubMult:       pubMult,
		Add:           add,
		Params:        params,
		PrivKey:       priv,
		PubKey:        pub,
		Deterministic: true,
	}

	digest := sha256.Sum256([]byte("hello world"))
	sig, err := signer.Sign(context.Background(), digest[:], sha256.New)
	require.NoError(t, err)

	ok, err := signer.Verify(context.Background(), sig, digest[:])
	require.NoError(t, err)
	require.True(t, ok)

	sig2, err := signer.Sign(context.Background(), digest[:], sha256.New)
	require.NoError(t, err)
	require.True(t, sig.Equal(sig2), "deterministic nonce should produce identical signatures")
}

func TestSignatureDERRoundTrip(t *testing.T) {
	sig := &Signature{R: big.NewInt(12345), S: big.NewInt(67890)}
	der, err := sig.ToDER()
	require.NoError(t, err)
	back, err := SignatureFromDER(der)
	require.NoError(t, err)
	require.True(t, sig.Equal(back))
}
