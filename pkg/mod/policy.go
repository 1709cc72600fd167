package mod

import (
	"fmt"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/ecsim/ecsim/internal/ecslog"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"go.uber.org/zap"
)

// dispatchNonInvertible implements the no_inverse_action policy: error,
// warning (log and return the zero-value default), or ignore (return the
// default silently).
func dispatchNonInvertible(def Mod) (Mod, error) {
	switch ecsconfig.Current().NoInverseAction {
	case ecsconfig.ActionWarning:
		ecslog.With("mod").Warn("element not invertible, returning default", zap.String("kind", "NonInvertible"))
		return def, nil
	case ecsconfig.ActionIgnore:
		return def, nil
	default:
		return nil, fmt.Errorf("%w", ecerrors.NonInvertible)
	}
}

// dispatchNonResidue implements the non_residue_action policy.
func dispatchNonResidue(def Mod) (Mod, error) {
	switch ecsconfig.Current().NonResidueAction {
	case ecsconfig.ActionWarning:
		ecslog.With("mod").Warn("no such root exists, returning default", zap.String("kind", "NonResidue"))
		return def, nil
	case ecsconfig.ActionIgnore:
		return def, nil
	default:
		return nil, fmt.Errorf("%w", ecerrors.NonResidue)
	}
}
