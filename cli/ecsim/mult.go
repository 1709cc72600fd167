package ecsim

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ecsim/ecsim/pkg/protocol"
	"github.com/ecsim/ecsim/pkg/trace"
	"github.com/urfave/cli"
)

func multCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "mult",
			Usage: "Execute scalar multiplication",
			Subcommands: []cli.Command{
				{
					Name:  "run",
					Usage: "Multiply the curve's generator by a scalar with the named multiplier",
					Flags: append(categoryNameFlags(),
						cli.StringFlag{Name: "multiplier", Usage: "one of: " + strings.Join(multiplierNames, ", ")},
						cli.StringFlag{Name: "scalar", Usage: "base-10 or base58-encoded scalar (see keygen)"},
						cli.UintFlag{Name: "width", Usage: "window/comb width for the windowed, booth, bgmw and comb multipliers (each has its own default)"},
						cli.BoolFlag{Name: "record", Usage: "export the op-level execution trace as CBOR"},
					),
					Action: multRun,
				},
			},
		},
	}
}

func multRun(c *cli.Context) error {
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

	m, err := buildMultiplier(name, params, c.Uint("width"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	ctx := context.Background()
	var rec *trace.Recording
	if c.Bool("record") {
		rec = trace.NewRecording()
		ctx = trace.WithRecorder(ctx, rec)
	}

	if err := m.Init(ctx, params, params.Generator, params.Order.BitLen()); err != nil {
		return cli.NewExitError(err, 1)
	}
	result, err := m.Multiply(ctx, scalar)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	encoded, err := protocol.ExportPoint(result, params.Curve.Field)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(c.App.Writer, "result: %s\n", encoded)

	if rec != nil {
		id, data, err := rec.Export()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintf(c.App.Writer, "trace %s: %d bytes (%d actions)\n", id, len(data), len(rec.Actions))
	}
	return nil
}

// parseScalar accepts either a base58-encoded scalar (ExportPrivateKey's
// output) or a plain base-10 integer, since a CLI user may type either a
// small test scalar or a keygen'd one.
func parseScalar(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("ecsim: --scalar is required")
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	return protocol.ImportPrivateKey(s)
}
