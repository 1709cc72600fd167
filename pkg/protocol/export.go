// Export helpers for CLI-facing rendering of keys and points. These
// supplement, never replace, the raw big-endian byte encoding the rest of
// the package (and the test suite) uses: base58 is only ever produced at
// the CLI boundary, the same way neo-go's cli/util commands base58-encode
// addresses and WIFs for a human to paste around while everything
// internal stays on raw bytes.
package protocol

import (
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/mr-tron/base58"
)

// ExportPoint renders an affine point as an uncompressed 0x04||X||Y
// octet string, base58-encoded. field sizes the fixed-width X/Y fields
// the same way ECDH sizes its shared-secret encoding.
func ExportPoint(point *curve.Point, field *big.Int) (string, error) {
	x, ok := point.Coords["x"]
	if !ok {
		return "", fmt.Errorf("protocol: export point: %w: point has no affine x coordinate", ecerrors.InputMismatch)
	}
	y, ok := point.Coords["y"]
	if !ok {
		return "", fmt.Errorf("protocol: export point: %w: point has no affine y coordinate", ecerrors.InputMismatch)
	}
	n := (field.BitLen() + 7) / 8
	out := make([]byte, 1+2*n)
	out[0] = 0x04
	x.X().FillBytes(out[1 : 1+n])
	y.X().FillBytes(out[1+n : 1+2*n])
	return base58.Encode(out), nil
}

// ImportPoint parses the output of ExportPoint back into an affine point
// on the given coordinate model.
func ImportPoint(s string, affine *curve.CoordinateModel, field *big.Int) (*curve.Point, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: import point: %w", err)
	}
	n := (field.BitLen() + 7) / 8
	if len(raw) != 1+2*n || raw[0] != 0x04 {
		return nil, fmt.Errorf("protocol: import point: %w: expected 1+%d uncompressed bytes, got %d", ecerrors.InputMismatch, 2*n, len(raw))
	}
	x, err := mod.New(new(big.Int).SetBytes(raw[1:1+n]), field)
	if err != nil {
		return nil, fmt.Errorf("protocol: import point: %w", err)
	}
	y, err := mod.New(new(big.Int).SetBytes(raw[1+n:1+2*n]), field)
	if err != nil {
		return nil, fmt.Errorf("protocol: import point: %w", err)
	}
	return curve.NewPoint(affine, map[string]mod.Mod{"x": x, "y": y})
}

// ExportPrivateKey base58-encodes a private scalar's fixed-width
// big-endian bytes, sized against the curve order — the CLI's
// counterpart to keygen's raw *big.Int.
func ExportPrivateKey(priv *big.Int, order *big.Int) string {
	n := (order.BitLen() + 7) / 8
	out := make([]byte, n)
	priv.FillBytes(out)
	return base58.Encode(out)
}

// ImportPrivateKey reverses ExportPrivateKey.
func ImportPrivateKey(s string) (*big.Int, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: import private key: %w", err)
	}
	return new(big.Int).SetBytes(raw), nil
}
