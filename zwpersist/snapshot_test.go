package zwpersist

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	table := zwnode.NewTable()
	node, _ := table.GetOrCreate(2, nil)
	node.Name = "Living Room Switch"
	node.Basic = 0x04
	cc, ok := zwcc.New(zwcc.ClassBinarySwitch)
	require.True(t, ok)
	node.Supported[zwcc.ClassBinarySwitch] = cc
	node.Store.Create(zwvalue.ID{NodeID: 2, CommandClass: zwcc.ClassBinarySwitch, Instance: 1},
		zwvalue.KindBool, zwvalue.GenreDynamic, "Switch", "", false, zwvalue.Value{})
	_, err := node.Store.Commit(zwvalue.ID{NodeID: 2, CommandClass: zwcc.ClassBinarySwitch, Instance: 1},
		zwvalue.Value{Kind: zwvalue.KindBool, Bool: true})
	require.NoError(t, err)

	doc := Snapshot(0x01020304, 1, table.All())
	require.Len(t, doc.Nodes, 1)
	require.Equal(t, uint8(2), doc.Nodes[0].ID)

	restoredTable := zwnode.NewTable()
	Restore(doc, restoredTable, nil)

	restored, ok := restoredTable.Get(2)
	require.True(t, ok)
	require.Equal(t, "Living Room Switch", restored.Name)
	_, ok = restored.ClassByID(zwcc.ClassBinarySwitch)
	require.True(t, ok)

	v, ok := restored.Store.Get(zwvalue.ID{NodeID: 2, CommandClass: zwcc.ClassBinarySwitch, Instance: 1})
	require.True(t, ok)
	require.True(t, v.Bool)
}
