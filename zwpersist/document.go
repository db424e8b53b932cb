// Package zwpersist implements the persisted-state file of spec.md's
// "Persisted state file" section: a single versioned document holding the
// HomeId, controller NodeId, and per-node protocol info/device identity/
// supported classes/groups/values, generalized from the teacher's
// cache.NodeCache (one JSON file per node, keyed by node ID under a cache
// directory) into one document covering the whole network, per §6's "Format
// is pluggable; the default is a tagged hierarchical format."
package zwpersist

import "github.com/OpenZWave/open-zwave-sub002/zwvalue"

// CurrentSchemaVersion is the schema version this package writes and the
// only one it accepts on Load; any other value is rejected per spec.md's
// "incompatible versions are rejected and the network is re-queried."
const CurrentSchemaVersion = 1

// Document is the top-level persisted-state record.
type Document struct {
	SchemaVersion     int          `mapstructure:"schema_version"`
	HomeID            uint32       `mapstructure:"home_id"`
	ControllerNodeID  uint8        `mapstructure:"controller_node_id"`
	Nodes             []NodeRecord `mapstructure:"nodes"`
}

// NodeRecord mirrors zwnode.Node's persisted fields: protocol info, device
// type codes, manufacturer/product triple, supported and controlled command
// classes with their version (no instance count), groups with members, and
// the node's values.
type NodeRecord struct {
	ID uint8 `mapstructure:"id"`

	Listening bool   `mapstructure:"listening"`
	Routing   bool   `mapstructure:"routing"`
	MaxBaud   uint32 `mapstructure:"max_baud"`
	Version   uint8  `mapstructure:"version"`
	Security  uint8  `mapstructure:"security"`
	Basic     uint8  `mapstructure:"basic"`
	Generic   uint8  `mapstructure:"generic"`
	Specific  uint8  `mapstructure:"specific"`

	ManufacturerID uint16 `mapstructure:"manufacturer_id"`
	ProductType    uint16 `mapstructure:"product_type"`
	ProductID      uint16 `mapstructure:"product_id"`

	Name     string `mapstructure:"name"`
	Location string `mapstructure:"location"`

	Classes []ClassRecord `mapstructure:"classes"`
	Groups  []GroupRecord `mapstructure:"groups"`
	Values  []ValueRecord `mapstructure:"values"`
}

// ClassRecord persists one entry of zwnode.Node.Supported/Controlled: the
// class ID, its negotiated wire version, and whether it was discovered as
// supported (false) or controlled-only, i.e. after the NIF's after-mark
// separator (true).
type ClassRecord struct {
	ID         uint8 `mapstructure:"id"`
	Version    uint8 `mapstructure:"version"`
	Controlled bool  `mapstructure:"controlled"`
}

// GroupRecord persists one zwnode.Group, per original_source's
// Group::WriteXML member-list shape.
type GroupRecord struct {
	Index           uint8   `mapstructure:"index"`
	Label           string  `mapstructure:"label"`
	Members         []uint8 `mapstructure:"members"`
	MaxAssociations int     `mapstructure:"max_associations"`
}

// ValueRecord persists one zwvalue.Value by flattening its ID and typed
// payload into document fields; only the field matching Kind is meaningful,
// mirroring zwvalue.Value's own "only the field matching Kind" contract.
type ValueRecord struct {
	CommandClass uint8 `mapstructure:"command_class"`
	Instance     uint8 `mapstructure:"instance"`
	Index        uint8 `mapstructure:"index"`

	Kind     int    `mapstructure:"kind"`
	Genre    int    `mapstructure:"genre"`
	Label    string `mapstructure:"label"`
	Units    string `mapstructure:"units"`
	ReadOnly bool   `mapstructure:"read_only"`

	Bool             bool    `mapstructure:"bool"`
	Byte             uint8   `mapstructure:"byte"`
	Short            int16   `mapstructure:"short"`
	Int              int32   `mapstructure:"int"`
	DecimalValue     float32 `mapstructure:"decimal_value"`
	DecimalPrecision uint8   `mapstructure:"decimal_precision"`
	String           string  `mapstructure:"string"`
	Raw              []byte  `mapstructure:"raw"`
}

// ToValue converts a ValueRecord back into a zwvalue.Value, filling in
// nodeID since the record itself only knows command class/instance/index.
func (r ValueRecord) ToValue(nodeID uint8) zwvalue.Value {
	return zwvalue.Value{
		ID: zwvalue.ID{
			NodeID:       nodeID,
			CommandClass: r.CommandClass,
			Instance:     r.Instance,
			Index:        r.Index,
		},
		Kind:     zwvalue.Kind(r.Kind),
		Genre:    zwvalue.Genre(r.Genre),
		Label:    r.Label,
		Units:    r.Units,
		ReadOnly: r.ReadOnly,
		Bool:     r.Bool,
		Byte:     r.Byte,
		Short:    r.Short,
		Int:      r.Int,
		Decimal:  zwvalue.Decimal{Value: r.DecimalValue, Precision: r.DecimalPrecision},
		String:   r.String,
		Raw:      r.Raw,
	}
}

// ValueRecordFromValue builds a ValueRecord from a live zwvalue.Value.
func ValueRecordFromValue(v zwvalue.Value) ValueRecord {
	return ValueRecord{
		CommandClass:     v.ID.CommandClass,
		Instance:         v.ID.Instance,
		Index:            v.ID.Index,
		Kind:             int(v.Kind),
		Genre:            int(v.Genre),
		Label:            v.Label,
		Units:            v.Units,
		ReadOnly:         v.ReadOnly,
		Bool:             v.Bool,
		Byte:             v.Byte,
		Short:            v.Short,
		Int:              v.Int,
		DecimalValue:     v.Decimal.Value,
		DecimalPrecision: v.Decimal.Precision,
		String:           v.String,
		Raw:              v.Raw,
	}
}
