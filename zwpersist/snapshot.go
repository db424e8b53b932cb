package zwpersist

import (
	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// Snapshot builds a Document from the live node table, per the teacher's
// NodeCache.LoadNodes iterating net.GetNodes() - generalized here into one
// document instead of one file per node.
func Snapshot(homeID uint32, controllerNodeID uint8, nodes []*zwnode.Node) *Document {
	doc := &Document{
		SchemaVersion:    CurrentSchemaVersion,
		HomeID:           homeID,
		ControllerNodeID: controllerNodeID,
		Nodes:            make([]NodeRecord, 0, len(nodes)),
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, nodeRecord(n))
	}
	return doc
}

func nodeRecord(n *zwnode.Node) NodeRecord {
	rec := NodeRecord{
		ID:             n.ID,
		Listening:      n.Listening,
		Routing:        n.Routing,
		MaxBaud:        n.MaxBaud,
		Version:        n.Version,
		Security:       n.Security,
		Basic:          n.Basic,
		Generic:        n.Generic,
		Specific:       n.Specific,
		ManufacturerID: n.ManufacturerID,
		ProductType:    n.ProductType,
		ProductID:      n.ProductID,
		Name:           n.Name,
		Location:       n.Location,
	}

	for classID, cc := range n.Supported {
		rec.Classes = append(rec.Classes, ClassRecord{ID: classID, Version: cc.Version(), Controlled: false})
	}
	for classID := range n.Controlled {
		rec.Classes = append(rec.Classes, ClassRecord{ID: classID, Controlled: true})
	}
	for _, g := range n.Groups {
		rec.Groups = append(rec.Groups, GroupRecord{
			Index:           g.Index,
			Label:           g.Label,
			Members:         append([]uint8(nil), g.Members...),
			MaxAssociations: g.MaxAssociations,
		})
	}
	for _, v := range n.Store.All() {
		rec.Values = append(rec.Values, ValueRecordFromValue(v))
	}
	return rec
}

// Restore installs doc's per-node records into table, creating any node not
// already present - the counterpart of the teacher's Node.Load reading a
// cache file back into a freshly constructed node before discovery confirms
// or corrects it. onChange is passed through to GetOrCreate for any node
// this call creates, so restored value commits still reach the
// notification bus the same way a live REPORT would.
func Restore(doc *Document, table *zwnode.Table, onChange func(zwvalue.ChangeKind, zwvalue.Value)) {
	for _, rec := range doc.Nodes {
		node, _ := table.GetOrCreate(rec.ID, onChange)
		applyNodeRecord(node, rec)
	}
}

// RestoreKnown applies doc's per-node records only to nodes table already
// has - it never conjures a node the live bitmap didn't report, unlike
// Restore, which is meant for tests and offline tooling working from the
// document alone.
func RestoreKnown(doc *Document, table *zwnode.Table) {
	for _, rec := range doc.Nodes {
		n, ok := table.Get(rec.ID)
		if !ok {
			continue
		}
		applyNodeRecord(n, rec)
	}
}

func applyNodeRecord(n *zwnode.Node, rec NodeRecord) {
	n.Listening = rec.Listening
	n.Routing = rec.Routing
	n.MaxBaud = rec.MaxBaud
	n.Version = rec.Version
	n.Security = rec.Security
	n.Basic = rec.Basic
	n.Generic = rec.Generic
	n.Specific = rec.Specific
	n.ManufacturerID = rec.ManufacturerID
	n.ProductType = rec.ProductType
	n.ProductID = rec.ProductID
	n.Name = rec.Name
	n.Location = rec.Location

	for _, cr := range rec.Classes {
		if cr.Controlled {
			n.Controlled[cr.ID] = true
			continue
		}
		if cc, ok := zwcc.New(cr.ID); ok {
			cc.SetVersion(cr.Version)
			n.Supported[cr.ID] = cc
		}
	}
	for _, gr := range rec.Groups {
		n.Groups[gr.Index] = &zwnode.Group{
			Index:           gr.Index,
			Label:           gr.Label,
			Members:         append([]uint8(nil), gr.Members...),
			MaxAssociations: gr.MaxAssociations,
		}
	}
	for _, vr := range rec.Values {
		v := vr.ToValue(n.ID)
		n.Store.Create(v.ID, v.Kind, v.Genre, v.Label, v.Units, v.ReadOnly, zwvalue.Value{})
		_, _ = n.Store.Commit(v.ID, v)
	}
}
