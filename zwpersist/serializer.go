package zwpersist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrSchemaVersion is returned by Load when a document's schema_version
// does not match CurrentSchemaVersion, per spec.md's "incompatible versions
// are rejected and the network is re-queried."
var ErrSchemaVersion = errors.New("zwpersist: incompatible schema version")

// Serializer is the pluggable document format spec.md's "Format is
// pluggable" clause calls for. Marshal renders a Document to bytes;
// Unmarshal parses bytes into the generic tagged-hierarchical shape
// (map[string]interface{}) every format - JSON, the original's XML, or
// anything else - reduces to, which mapstructure then decodes into the
// typed Document. A format implementation never builds a Document
// directly, so swapping formats never touches decode-into-struct logic.
type Serializer interface {
	Marshal(doc *Document) ([]byte, error)
	Unmarshal(data []byte) (map[string]interface{}, error)
}

// JSONSerializer is the default non-XML implementation spec.md's Non-goals
// call for ("XML parsing of... persisted-state files" is out of scope; a
// pluggable serializer is the documented extension point for it instead).
type JSONSerializer struct{}

func (JSONSerializer) Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (JSONSerializer) Unmarshal(data []byte) (map[string]interface{}, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("zwpersist: unmarshalling document: %w", err)
	}
	return generic, nil
}

// Decode runs generic (as produced by a Serializer's Unmarshal) through
// mapstructure into a typed Document, then enforces the schema version.
func Decode(generic map[string]interface{}) (*Document, error) {
	var doc Document
	if err := mapstructure.Decode(generic, &doc); err != nil {
		return nil, fmt.Errorf("zwpersist: decoding document: %w", err)
	}
	if doc.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, doc.SchemaVersion, CurrentSchemaVersion)
	}
	return &doc, nil
}
