package commands

import (
	"fmt"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwctrl"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/spf13/cobra"
)

var controllerHighPower bool

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run network-management commands (add-node, cancel)",
}

var controllerAddNodeCmd = &cobra.Command{
	Use:   "add-node",
	Short: "Put the controller into add-node mode and wait for a node to join",
	Long: `Add-node starts the §4.10 AddDevice state machine, prints each
ControllerState transition as it happens, and waits for the sequence to
finish (node found, protocol info exchanged, or a timeout/failure).`,
	RunE: runControllerAddNode,
}

var controllerCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Abort whatever controller command is currently active",
	RunE:  runControllerCancel,
}

func init() {
	controllerAddNodeCmd.Flags().BoolVar(&controllerHighPower, "high-power", false, "use high-power add mode")
	controllerCmd.AddCommand(controllerAddNodeCmd)
	controllerCmd.AddCommand(controllerCancelCmd)
}

func runControllerAddNode(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	done := make(chan zwnotify.Notification, 1)
	handle := d.AddWatcher(func(n zwnotify.Notification) {
		if n.Type != zwnotify.ControllerState {
			return
		}
		state, _ := n.Data.(zwctrl.ControllerState)
		if n.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "controller: node=%d error: %v\n", n.NodeID, n.Err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "controller: node=%d %s\n", n.NodeID, state)
		}
		if n.Err == nil && state != zwctrl.StateCompleted && state != zwctrl.StateFailed {
			return
		}
		select {
		case done <- n:
		default:
		}
	})
	defer d.RemoveWatcher(handle)

	if err := d.BeginControllerCommand(zwctrl.CommandAddDevice, 0, controllerHighPower); err != nil {
		return fmt.Errorf("starting add-node: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "zwctl: controller in add-node mode; trigger inclusion on the target device now")

	select {
	case <-done:
	case <-time.After(2 * time.Minute):
		_ = d.CancelControllerCommand()
		return fmt.Errorf("add-node timed out waiting for a device")
	}
	return nil
}

func runControllerCancel(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.CancelControllerCommand(); err != nil {
		return fmt.Errorf("cancelling controller command: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "zwctl: controller command cancelled")
	return nil
}
