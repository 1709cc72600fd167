package ecsim

import (
	"fmt"
	"sort"

	"github.com/ecsim/ecsim/pkg/curvedb"
	"github.com/urfave/cli"
)

func curveCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "curve",
			Usage: "Inspect the standard curve database",
			Subcommands: []cli.Command{
				{
					Name:  "list",
					Usage: "List curve categories, or curves within one",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "category", Usage: "category to list curves within (lists categories if omitted)"},
					},
					Action: curveList,
				},
				{
					Name:  "show",
					Usage: "Print one curve's domain parameters",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "category", Usage: "curve category, e.g. secg"},
						cli.StringFlag{Name: "name", Usage: "curve name, e.g. secp256k1"},
					},
					Action: curveShow,
				},
			},
		},
	}
}

func curveList(c *cli.Context) error {
	category := c.String("category")
	if category == "" {
		categories, err := curvedb.Categories()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			fmt.Fprintln(c.App.Writer, cat)
		}
		return nil
	}
	db, err := openDB()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()
	names, err := db.List(category)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}

func curveShow(c *cli.Context) error {
	db, params, err := requireParams(c)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Fprintf(c.App.Writer, "name:     %s\n", params.Name)
	fmt.Fprintf(c.App.Writer, "category: %s\n", params.Category)
	fmt.Fprintf(c.App.Writer, "model:    %s (%s)\n", params.Curve.Model.Name, params.Curve.Model.Equation)
	fmt.Fprintf(c.App.Writer, "field:    %s\n", params.Curve.Field)
	fmt.Fprintf(c.App.Writer, "order:    %s\n", params.Order)
	fmt.Fprintf(c.App.Writer, "cofactor: %s\n", params.Cofactor)
	fmt.Fprintf(c.App.Writer, "generator: %s\n", params.Generator)
	for k, v := range params.Curve.Parameters {
		fmt.Fprintf(c.App.Writer, "param %s: %s\n", k, v)
	}
	return nil
}
