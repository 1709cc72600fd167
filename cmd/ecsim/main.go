// Command ecsim is the command-line entry point for the toolkit: see
// cli/ecsim for the command tree itself.
package main

import (
	"fmt"
	"os"

	"github.com/ecsim/ecsim/cli/ecsim"
)

func main() {
	ctl := ecsim.New()
	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
