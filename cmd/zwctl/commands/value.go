package commands

import (
	"fmt"
	"strconv"

	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
	"github.com/spf13/cobra"
)

var (
	valueNode     uint8
	valueClass    string
	valueInstance uint8
	valueIndex    uint8
)

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Get or set a node's value",
}

var valueGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a value from the local store",
	RunE:  runValueGet,
}

var valueSetCmd = &cobra.Command{
	Use:   "set <value>",
	Short: "Write a byte value to a node (enqueues a SET, applied once the REPORT confirms it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runValueSet,
}

func init() {
	for _, c := range []*cobra.Command{valueGetCmd, valueSetCmd} {
		c.Flags().Uint8Var(&valueNode, "node", 0, "target node ID")
		c.Flags().StringVar(&valueClass, "class", "", "command class ID, hex (e.g. 0x25)")
		c.Flags().Uint8Var(&valueInstance, "instance", 1, "instance/endpoint")
		c.Flags().Uint8Var(&valueIndex, "index", 0, "value index within the class")
		_ = c.MarkFlagRequired("node")
		_ = c.MarkFlagRequired("class")
	}
	valueCmd.AddCommand(valueGetCmd)
	valueCmd.AddCommand(valueSetCmd)
}

func parseValueID() (zwvalue.ID, error) {
	classID, err := strconv.ParseUint(valueClass, 0, 8)
	if err != nil {
		return zwvalue.ID{}, fmt.Errorf("parsing --class %q: %w", valueClass, err)
	}
	return zwvalue.ID{NodeID: valueNode, CommandClass: uint8(classID), Instance: valueInstance, Index: valueIndex}, nil
}

func runValueGet(cmd *cobra.Command, args []string) error {
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

	waitAllNodesQueried(d, nodesWait)

	v, err := d.GetValue(id)
	if err != nil {
		return fmt.Errorf("reading %s: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", id, formatValue(v))
	return nil
}

func runValueSet(cmd *cobra.Command, args []string) error {
	id, err := parseValueID()
	if err != nil {
		return err
	}

	raw, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return fmt.Errorf("parsing value %q as a byte: %w", args[0], err)
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

	waitAllNodesQueried(d, nodesWait)

	if err := d.SetValue(id, zwvalue.Value{Kind: zwvalue.KindByte, Byte: uint8(raw)}); err != nil {
		return fmt.Errorf("setting %s: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <- %d (pending confirmation)\n", id, raw)
	return nil
}

func formatValue(v zwvalue.Value) string {
	switch v.Kind {
	case zwvalue.KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case zwvalue.KindByte:
		return fmt.Sprintf("%d", v.Byte)
	case zwvalue.KindShort:
		return fmt.Sprintf("%d", v.Short)
	case zwvalue.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case zwvalue.KindDecimal:
		return fmt.Sprintf("%g", v.Decimal.Value)
	case zwvalue.KindString:
		return v.String
	case zwvalue.KindRaw, zwvalue.KindList:
		return fmt.Sprintf("% x", v.Raw)
	default:
		return fmt.Sprintf("%+v", v)
	}
}
