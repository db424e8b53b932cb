package zwpersist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	return &Document{
		SchemaVersion:    CurrentSchemaVersion,
		HomeID:           0x01020304,
		ControllerNodeID: 1,
		Nodes: []NodeRecord{
			{
				ID:             2,
				Listening:      true,
				Basic:          0x04,
				Generic:        0x10,
				Specific:       0x01,
				ManufacturerID: 0x0086,
				Name:           "Living Room Switch",
				Classes: []ClassRecord{
					{ID: 0x25, Version: 1},
				},
				Groups: []GroupRecord{
					{Index: 1, Label: "Lifeline", Members: []uint8{1}},
				},
				Values: []ValueRecord{
					{CommandClass: 0x25, Instance: 1, Kind: 0, Bool: true, Label: "Switch"},
				},
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	doc := sampleDocument()

	require.NoError(t, Save(path, doc, JSONSerializer{}))

	loaded, found, err := Load(path, JSONSerializer{})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, doc.HomeID, loaded.HomeID)
	require.Equal(t, doc.ControllerNodeID, loaded.ControllerNodeID)
	require.Len(t, loaded.Nodes, 1)
	require.Equal(t, doc.Nodes[0].Name, loaded.Nodes[0].Name)
	require.Equal(t, doc.Nodes[0].Classes, loaded.Nodes[0].Classes)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.json")

	doc, found, err := Load(path, JSONSerializer{})
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, doc)
}

func TestLoadRejectsIncompatibleSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	doc := sampleDocument()
	doc.SchemaVersion = CurrentSchemaVersion + 1
	require.NoError(t, Save(path, doc, JSONSerializer{}))

	_, _, err := Load(path, JSONSerializer{})
	require.ErrorIs(t, err, ErrSchemaVersion)
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, Save(path, sampleDocument(), JSONSerializer{}))

	fired := make(chan error, 1)
	w, err := NewWatcher(path, func(err error) {
		select {
		case fired <- err:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, Save(path, sampleDocument(), JSONSerializer{}))

	select {
	case err := <-fired:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a watch notification after rewriting the state file")
	}
}
