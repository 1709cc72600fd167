package protocol

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportImportPointRoundTrip(t *testing.T) {
	params, g, _ := toyParams(t)
	affine := params.Curve.CoordinateModel

	encoded, err := ExportPoint(g, params.Curve.Field)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := ImportPoint(encoded, affine, params.Curve.Field)
	require.NoError(t, err)
	require.True(t, decoded.Coords["x"].Equal(g.Coords["x"]))
	require.True(t, decoded.Coords["y"].Equal(g.Coords["y"]))
}

func TestImportPointRejectsWrongLength(t *testing.T) {
	params, _, _ := toyParams(t)
	affine := params.Curve.CoordinateModel
	// "abcdef" is valid base58 but decodes to 5 bytes, not a point's length.
	_, err := ImportPoint("abcdef", affine, params.Curve.Field)
	require.Error(t, err)
}

func TestExportImportPrivateKeyRoundTrip(t *testing.T) {
	params, _, _ := toyParams(t)
	priv := big.NewInt(11)
	encoded := ExportPrivateKey(priv, params.Order)
	decoded, err := ImportPrivateKey(encoded)
	require.NoError(t, err)
	require.Equal(t, 0, priv.Cmp(decoded))
}

