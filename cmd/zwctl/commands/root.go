// Package commands implements zwctl's subcommands: a small embedder CLI
// over zwdriver, grounded on marmos91-dittofs's cmd/dittofs/commands
// (cobra root command, persistent config flag, one file per subcommand).
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	devicePath string
	baud       int
	verbose    bool
)

// rootCmd is the base command when zwctl is invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "zwctl",
	Short: "zwctl - a command-line controller for a Z-Wave Serial API device",
	Long: `zwctl drives a single Z-Wave controller over its Serial API: discover
nodes, read and write values, run network-management commands, and toggle
polling, all against the zwdriver state machine this module implements.

Use "zwctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; main calls this once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/zwave/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&devicePath, "device", "", "serial device path (overrides config)")
	rootCmd.PersistentFlags().IntVar(&baud, "baud", 0, "serial baud rate (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(pollCmd)
}
