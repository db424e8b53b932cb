package zwpersist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and decodes the document at path using ser, per spec.md's
// "Persisted state file" section. A missing file is not an error - the
// caller re-queries the network from scratch, the same fallback
// cache.NodeCache.LoadNodes applies when a per-node cache file is absent.
func Load(path string, ser Serializer) (*Document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("zwpersist: reading %s: %w", path, err)
	}

	generic, err := ser.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	doc, err := Decode(generic)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Save writes doc to path using ser, creating the parent directory if
// needed, per the teacher's NodeCache.LoadNodes creating its cache
// directory on first use.
func Save(path string, doc *Document, ser Serializer) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("zwpersist: creating %s: %w", dir, err)
	}

	data, err := ser.Marshal(doc)
	if err != nil {
		return fmt.Errorf("zwpersist: marshalling document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("zwpersist: writing %s: %w", path, err)
	}
	return nil
}
