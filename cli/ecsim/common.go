package ecsim

import (
	"fmt"
	"strings"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/curvedb"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mult"
	"github.com/urfave/cli"
)

// openDB opens the standard curve database, backed by the bbolt cache
// path configured in ecsconfig (or the process default).
func openDB() (*curvedb.DB, error) {
	return curvedb.Open(ecsconfig.Current().CurveDBPath)
}

// requireParams opens the database and fetches one curve by its
// --category/--name flags, the pattern every command below needs before
// it can do anything domain-specific.
func requireParams(c *cli.Context) (*curvedb.DB, *curve.DomainParameters, error) {
	category := c.String("category")
	name := c.String("name")
	if category == "" || name == "" {
		return nil, nil, cli.NewExitError("both --category and --name are required", 1)
	}
	db, err := openDB()
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	params, err := db.Get(category, name, "affine")
	if err != nil {
		db.Close()
		return nil, nil, cli.NewExitError(err, 1)
	}
	return db, params, nil
}

// multiplier is the pair of capabilities the CLI needs out of any
// concrete mult.* type: bind to a point (Init) then scale it (Multiply).
// mult itself never needs to name this combination since most call sites
// either only construct or only consume one; the CLI dispatches over
// every variant generically, so it does.
type multiplier interface {
	mult.Initializer
	mult.ScalarMultiplier
}

// buildMultiplier constructs the named multiplier variant over params'
// curve, using the textbook affine formulas (formula.StandardAffine) —
// the CLI has no EFD coordinate-system selection flag, so every
// multiplier it builds runs in affine coordinates. width applies to every
// windowed/comb variant ("window-naf", "fixed-window-ltr",
// "sliding-window-ltr", "sliding-window-rtl", "window-booth", "bgmw",
// "comb") and is ignored otherwise; each uses its own sensible default
// when width is 0.
func buildMultiplier(name string, params *curve.DomainParameters, width uint) (multiplier, error) {
	add, dbl, neg := formula.StandardAffine(params.Curve.CoordinateModel)
	switch name {
	case "ltr":
		return mult.NewLTR(add, dbl, nil, false, false, mult.PeqPR)
	case "rtl":
		return mult.NewRTL(add, dbl, nil, false, false, mult.PeqPR)
	case "ltr-always":
		return mult.NewLTR(add, dbl, nil, true, false, mult.PeqPR)
	case "ladder":
		return mult.NewLadder(add, dbl, nil, false)
	case "simple-ladder":
		return mult.NewSimpleLadder(add, dbl, nil, false)
	case "binary-naf":
		return mult.NewBinaryNAF(add, dbl, neg, nil, mult.LTR, mult.PeqPR)
	case "window-naf":
		if width == 0 {
			width = 3
		}
		return mult.NewWindowNAF(add, dbl, neg, nil, width, mult.PeqPR, false)
	case "coron":
		return mult.NewCoron(add, dbl, nil)
	case "fixed-window-ltr":
		if width == 0 {
			width = 4
		}
		return mult.NewFixedWindowLTR(add, dbl, nil, int64(width), mult.PeqPR)
	case "sliding-window-ltr":
		if width == 0 {
			width = 3
		}
		return mult.NewSlidingWindow(add, dbl, nil, width, mult.LTR, mult.PeqPR)
	case "sliding-window-rtl":
		if width == 0 {
			width = 3
		}
		return mult.NewSlidingWindow(add, dbl, nil, width, mult.RTL, mult.PeqPR)
	case "window-booth":
		if width == 0 {
			width = 3
		}
		return mult.NewWindowBooth(add, dbl, neg, nil, width, mult.PeqPR)
	case "bgmw":
		if width == 0 {
			width = 2
		}
		return mult.NewBGMW(add, dbl, nil, width, mult.LTR, mult.PeqPR)
	case "comb":
		if width == 0 {
			width = 3
		}
		return mult.NewComb(add, dbl, nil, width, mult.PeqPR)
	case "full-precomp":
		return mult.NewFullPrecomp(add, dbl, nil, mult.LTR, mult.PeqPR, false, false)
	default:
		return nil, fmt.Errorf("ecsim: unknown multiplier %q (want one of %s)", name, strings.Join(multiplierNames, ", "))
	}
}

// multiplierNames lists every name buildMultiplier accepts, for usage text.
var multiplierNames = []string{
	"ltr", "rtl", "ltr-always", "ladder", "simple-ladder", "binary-naf", "window-naf",
	"coron", "fixed-window-ltr", "sliding-window-ltr", "sliding-window-rtl",
	"window-booth", "bgmw", "comb", "full-precomp",
}
