package trace

import (
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// wireMod is the CBOR wire form of a mod.Mod value: just enough to
// reconstruct it with mod.New(X, N) on the reading side, independent of
// whichever backend (raw/fixed/symbolic) produced it.
type wireMod struct {
	X []byte
	N []byte
}

func toWireMod(x *big.Int, n *big.Int) wireMod {
	return wireMod{X: x.Bytes(), N: n.Bytes()}
}

// wireAction is Action's CBOR wire form: mod.Mod values don't round-trip
// through cbor directly (it's an interface over several backends), so
// each is flattened to its (value, modulus) byte pair.
type wireAction struct {
	FormulaName   string
	Inputs        map[string]wireMod
	Order         []string
	Intermediates map[string]wireMod
	Outputs       map[string]wireMod
}

// Batch is a decoded export: the recording's actions, identified by the
// UUID stamped on export.
type Batch struct {
	ID      uuid.UUID
	Actions []wireAction
}

// Export serializes the recording to CBOR, stamping it with a fresh
// random UUID so separate exports of the same in-process recording (e.g.
// one per oracle trial in pkg/rpa) stay distinguishable downstream.
// This is an off-line analysis/storage surface — nothing in the hot
// formula-execution path calls it.
func (r *Recording) Export() (uuid.UUID, []byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("trace: export: %w", err)
	}
	actions := make([]wireAction, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = wireAction{
			FormulaName:   a.FormulaName,
			Inputs:        flattenMods(a.Inputs),
			Order:         a.Order,
			Intermediates: flattenMods(a.Intermediates),
			Outputs:       flattenMods(a.Outputs),
		}
	}
	data, err := cbor.Marshal(Batch{ID: id, Actions: actions})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("trace: export: %w", err)
	}
	return id, data, nil
}

func flattenMods(in map[string]mod.Mod) map[string]wireMod {
	out := make(map[string]wireMod, len(in))
	for k, v := range in {
		x := v.X()
		if x == nil {
			continue
		}
		out[k] = toWireMod(x, v.N())
	}
	return out
}

// ImportBatch decodes a batch produced by Recording.Export. The returned
// wireMod coordinates are reconstructed with mod.New against the process's
// current backend configuration, not necessarily the one active when the
// batch was written.
func ImportBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("trace: import batch: %w", err)
	}
	return &b, nil
}

// Reconstruct turns one wireMod back into a live mod.Mod.
func (w wireMod) Reconstruct() (mod.Mod, error) {
	return mod.New(new(big.Int).SetBytes(w.X), new(big.Int).SetBytes(w.N))
}
