package trace

import (
	"math/big"
	"testing"

	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/op"
	"github.com/stretchr/testify/require"
)

func TestRecordingExportImportRoundTrip(t *testing.T) {
	n := big.NewInt(23)
	x1, err := mod.FromInt64(5, n)
	require.NoError(t, err)
	y1, err := mod.FromInt64(7, n)
	require.NoError(t, err)
	x3, err := mod.FromInt64(9, n)
	require.NoError(t, err)

	r := NewRecording()
	r.LogAction("affine-add", map[string]mod.Mod{"x1": x1, "y1": y1})
	r.LogOperation(&op.CodeOp{Result: "x3"}, x3)
	r.LogResult(map[string]mod.Mod{"x3": x3})

	id, data, err := r.Export()
	require.NoError(t, err)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", id.String())
	require.NotEmpty(t, data)

	batch, err := ImportBatch(data)
	require.NoError(t, err)
	require.Equal(t, id, batch.ID)
	require.Len(t, batch.Actions, 1)
	require.Equal(t, "affine-add", batch.Actions[0].FormulaName)

	reconstructed, err := batch.Actions[0].Outputs["x3"].Reconstruct()
	require.NoError(t, err)
	require.Equal(t, 0, reconstructed.X().Cmp(big.NewInt(9)))
}
