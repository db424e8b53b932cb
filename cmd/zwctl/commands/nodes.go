package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var nodesWait time.Duration

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List discovered nodes",
	Long: `Nodes opens the controller, waits up to --wait for discovery to settle
(AllNodesQueried), then prints every node currently in the table - whichever
state discovery reached by then, settled or not.`,
	RunE: runNodes,
}

func init() {
	nodesCmd.Flags().DurationVar(&nodesWait, "wait", 10*time.Second, "how long to wait for discovery to settle")
}

func runNodes(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	settled := waitAllNodesQueried(d, nodesWait)

	nodes := d.AllNodes()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "home_id=0x%08x own_node=%d settled=%v nodes=%d\n\n", d.HomeID(), d.OwnNodeID(), settled, len(nodes))
	fmt.Fprintf(out, "%-6s %-10s %-9s %-8s %-9s %s\n", "ID", "GENERIC", "SPECIFIC", "LISTEN", "DEAD", "NAME")
	for _, n := range nodes {
		fmt.Fprintf(out, "%-6d 0x%02x       0x%02x       %-8v %-9v %s\n", n.ID, n.Generic, n.Specific, n.Listening, n.Dead(), n.Name)
	}
	return nil
}
