// Package ecsim assembles the ecsim command-line tool: curve database
// inspection, key generation, ECDH/ECDSA, scalar-multiplication
// execution, and the RPA/EPA re-engineering analyses. Modeled directly on
// neo-go's cli/app/app.go — one New() constructing a *cli.App and
// delegating each command group to its own file in this package, the way
// neo-go delegates to its per-subsystem cli/ packages.
package ecsim

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"
)

// Version is stamped at build time via -ldflags, mirroring neo-go's
// pkg/config.Version pattern; left as a plain var here since this module
// carries no analogous release-versioning package.
var Version = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "ecsim\nVersion: %s\nGoVersion: %s\n", Version, runtime.Version())
}

// New builds the ecsim *cli.App with every command group registered.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "ecsim"
	ctl.Version = Version
	ctl.Usage = "Elliptic-curve implementation re-engineering toolkit"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, curveCommands()...)
	ctl.Commands = append(ctl.Commands, keyCommands()...)
	ctl.Commands = append(ctl.Commands, multCommands()...)
	ctl.Commands = append(ctl.Commands, analyzeCommands()...)
	return ctl
}
