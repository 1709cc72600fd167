package ecsim

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/epa"
	"github.com/ecsim/ecsim/pkg/rpa"
	"github.com/urfave/cli"
)

func analyzeCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "rpa",
			Usage: "Refined Power Analysis re-engineering",
			Subcommands: []cli.Command{
				{
					Name:  "distinguish",
					Usage: "Recover which multiplier produced an oracle's zero-coordinate answers",
					Flags: append(categoryNameFlags(),
						cli.StringFlag{Name: "real", Usage: "multiplier the simulated oracle is standing in for, one of: " + strings.Join(multiplierNames, ", ")},
						cli.StringFlag{Name: "candidates", Usage: "comma-separated subset of multipliers to test (default: all)"},
					),
					Action: rpaDistinguish,
				},
			},
		},
		{
			Name:  "epa",
			Usage: "Exceptional Procedure Attack re-engineering",
			Subcommands: []cli.Command{
				{
					Name:  "check",
					Usage: "Report whether a scalar multiplication would hit an exceptional formula input",
					Flags: append(categoryNameFlags(),
						cli.StringFlag{Name: "multiplier", Usage: "one of: " + strings.Join(multiplierNames, ", ")},
						cli.StringFlag{Name: "scalar", Usage: "base-10 or base58-encoded scalar"},
					),
					Action: epaCheck,
				},
			},
		},
	}
}

// rpaCandidate builds one rpa.Candidate whose Factory constructs a fresh,
// un-Init'd multiplier by name, the way rpa.Distinguish needs one factory
// per trial run rather than a shared stateful instance.
func rpaCandidate(name string, params *curve.DomainParameters) rpa.Candidate {
	return rpa.Candidate{
		Name: name,
		Factory: func() (rpa.Multiplier, error) {
			return buildMultiplier(name, params, 0)
		},
	}
}

func rpaDistinguish(c *cli.Context) error {
	db, params, err := requireParams(c)
	if err != nil {
		return err
	}
	defer db.Close()

	realName := c.String("real")
	if realName == "" {
		return cli.NewExitError("--real is required", 1)
	}

	names := multiplierNames
	if s := c.String("candidates"); s != "" {
		names = strings.Split(s, ",")
	}
	candidates := make([]rpa.Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, rpaCandidate(strings.TrimSpace(name), params))
	}

	real := rpaCandidate(realName, params)
	oracle := func(scalar *big.Int, point *curve.Point) (bool, error) {
		return rpa.Simulate(real, params, scalar, point)
	}

	trials, err := rpa.DefaultTrials(params, params.Curve.CoordinateModel, nil)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	survivors, err := rpa.Distinguish(params, candidates, oracle, trials)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if len(survivors) == 0 {
		fmt.Fprintln(c.App.Writer, "no candidate matches the oracle")
		return nil
	}
	for _, s := range survivors {
		fmt.Fprintln(c.App.Writer, s.Name)
	}
	return nil
}

func epaCheck(c *cli.Context) error {
	db, params, err := requireParams(c)
	if err != nil {
		return err
	}
	defer db.Close()

	name := c.String("multiplier")
	if name == "" {
		return cli.NewExitError("--multiplier is required", 1)
	}
	scalar, err := parseScalar(c.String("scalar"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	cand := rpaCandidate(name, params)
	precomp, full, out, err := rpa.MultipleGraph(params, cand, params.Generator, scalar)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	checkInputs, err := epa.GraphToCheckInputs(precomp, full, out, epa.CheckAll, true, true, true, nil)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	// doublingViaAdd fires on any "add" call whose two input multiples
	// coincide: an addition formula asked to add a point to itself, the
	// textbook exceptional input every complete formula is built to avoid.
	doublingViaAdd := func(multiples ...int64) (bool, error) {
		if len(multiples) != 2 {
			return false, fmt.Errorf("epa: doubling-via-add expects 2 inputs, got %d", len(multiples))
		}
		return multiples[0] == multiples[1], nil
	}
	checks := map[string]epa.CheckFunc{"add": doublingViaAdd}

	fired, err := epa.EvaluateChecks(checks, checkInputs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(c.App.Writer, "formulas observed: %s\n", strings.Join(checkInputs.Formulas(), ", "))
	fmt.Fprintf(c.App.Writer, "exceptional input hit: %t\n", fired)
	return nil
}
