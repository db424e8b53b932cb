package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pollIntensity int

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Enable, disable, or reconfigure periodic value polling",
}

var pollEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable polling for a value",
	RunE:  runPollEnable,
}

var pollDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable polling for a value",
	RunE:  runPollDisable,
}

var pollIntervalCmd = &cobra.Command{
	Use:   "interval <duration>",
	Short: "Change the global poll interval (e.g. 5s)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPollInterval,
}

func init() {
	for _, c := range []*cobra.Command{pollEnableCmd, pollDisableCmd} {
		c.Flags().Uint8Var(&valueNode, "node", 0, "target node ID")
		c.Flags().StringVar(&valueClass, "class", "", "command class ID, hex (e.g. 0x25)")
		c.Flags().Uint8Var(&valueInstance, "instance", 1, "instance/endpoint")
		c.Flags().Uint8Var(&valueIndex, "index", 0, "value index within the class")
		_ = c.MarkFlagRequired("node")
		_ = c.MarkFlagRequired("class")
	}
	pollEnableCmd.Flags().IntVar(&pollIntensity, "intensity", 1, "poll once every N cycles")

	pollCmd.AddCommand(pollEnableCmd)
	pollCmd.AddCommand(pollDisableCmd)
	pollCmd.AddCommand(pollIntervalCmd)
}

func runPollEnable(cmd *cobra.Command, args []string) error {
	id, err := parseValueID()
	if err != nil {
		return err
	}

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	d.EnablePoll(id, pollIntensity)
	fmt.Fprintf(cmd.OutOrStdout(), "zwctl: polling enabled for %s (every %d cycles)\n", id, pollIntensity)
	return nil
}

func runPollDisable(cmd *cobra.Command, args []string) error {
	id, err := parseValueID()
	if err != nil {
		return err
	}

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	d.DisablePoll(id)
	fmt.Fprintf(cmd.OutOrStdout(), "zwctl: polling disabled for %s\n", id)
	return nil
}

func runPollInterval(cmd *cobra.Command, args []string) error {
	interval, parseErr := time.ParseDuration(args[0])
	if parseErr != nil {
		return fmt.Errorf("parsing interval %q: %w", args[0], parseErr)
	}

	opts, loadErr := loadOptions()
	if loadErr != nil {
		return loadErr
	}
	drv, openErr := openDriver(opts)
	if openErr != nil {
		return openErr
	}
	defer drv.Close()

	drv.SetPollInterval(interval)
	fmt.Fprintf(cmd.OutOrStdout(), "zwctl: poll interval set to %s\n", interval)
	return nil
}
