// Command zwctl is a small CLI front-end over this module's Driver: open a
// controller, list nodes, read/write values, run controller commands, and
// toggle polling - the embedder API of spec.md §6 exposed as a command
// line, grounded on marmos91-dittofs's cmd/dittofs (cobra root command plus
// one file per subcommand).
package main

import (
	"fmt"
	"os"

	"github.com/OpenZWave/open-zwave-sub002/cmd/zwctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zwctl: %v\n", err)
		os.Exit(1)
	}
}
