package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the controller and stream notifications until interrupted",
	Long: `Open connects to the configured Serial API device, runs the discovery
handshake, and prints every notification (node added, value changed,
controller state, etc.) until interrupted with Ctrl+C - useful for watching
a network live or exercising a new device.`,
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	d, err := openDriver(opts)
	if err != nil {
		return err
	}
	defer d.Close()

	handle := d.AddWatcher(func(n zwnotify.Notification) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s node=%d %s\n", notificationLabel(n.Type), n.NodeID, n.Message)
	})
	defer d.RemoveWatcher(handle)

	fmt.Fprintf(cmd.OutOrStdout(), "zwctl: controller ready, home_id=0x%08x own_node=%d\n", d.HomeID(), d.OwnNodeID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Fprintln(cmd.OutOrStdout(), "zwctl: shutting down")
	return nil
}

func notificationLabel(t zwnotify.Type) string {
	switch t {
	case zwnotify.NodeAdded:
		return "NodeAdded"
	case zwnotify.NodeRemoved:
		return "NodeRemoved"
	case zwnotify.NodeQueriesComplete:
		return "NodeQueriesComplete"
	case zwnotify.AwakeNodesQueried:
		return "AwakeNodesQueried"
	case zwnotify.AllNodesQueried:
		return "AllNodesQueried"
	case zwnotify.ValueAdded:
		return "ValueAdded"
	case zwnotify.ValueChanged:
		return "ValueChanged"
	case zwnotify.ValueRefreshed:
		return "ValueRefreshed"
	case zwnotify.ValueRemoved:
		return "ValueRemoved"
	case zwnotify.ControllerState:
		return "ControllerState"
	case zwnotify.NotificationTimeout:
		return "NotificationTimeout"
	case zwnotify.DriverReady:
		return "DriverReady"
	case zwnotify.DriverFailed:
		return "DriverFailed"
	case zwnotify.DriverRemoved:
		return "DriverRemoved"
	default:
		return "NotificationGeneric"
	}
}
