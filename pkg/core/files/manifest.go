package files

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/titanous/json5"
)

// ManifestName is the dependency manifest looked up in the root of a tree.
const ManifestName = "reduce-deps.json5"

// Manifest maps a file to the files it needs. Paths are slash separated and
// relative to the tree root:
//
//	{
//	  // main.c cannot build without util.h
//	  "main.c": ["util.h"],
//	}
type Manifest map[string][]string

// LoadManifestFromPath loads a manifest from a file. A missing file yields
// os.ErrNotExist unwrapped so callers can treat it as optional.
func LoadManifestFromPath(p string) (Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading manifest '%s': %w", p, err)
	}
	return LoadManifest(bytes.NewReader(data))
}

// LoadManifest parses a json5 manifest.
func LoadManifest(reader io.Reader) (Manifest, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading manifest data: %w", err)
	}

	var raw map[string]interface{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	m := make(Manifest, len(raw))
	for file, value := range raw {
		var needs []string
		switch v := value.(type) {
		case string:
			needs = append(needs, v)
		case []interface{}:
			for i, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("'%s' has a non-string entry at index %d", file, i)
				}
				needs = append(needs, str)
			}
		default:
			return nil, fmt.Errorf("'%s' must map to a string or an array of strings", file)
		}
		for i := range needs {
			needs[i] = path.Clean(needs[i])
		}
		m[path.Clean(file)] = needs
	}
	return m, nil
}

// Files returns the files that have an entry, sorted.
func (m Manifest) Files() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
