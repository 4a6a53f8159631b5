package files

import (
	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/manip"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// Title names file elements in logs and statistics.
const Title = "Files"

type fileOps struct{}

// Discover builds the graph of enabled files. A manifest entry "a" needing
// "b" becomes the edge b -> a: a file is pruned as soon as one of the files
// it needs is gone.
func (fileOps) Discover(t *Tree) (*graph.Graph[string], error) {
	list, err := t.Files()
	if err != nil {
		return nil, err
	}

	g := graph.New[string]()
	for _, f := range list {
		g.AddNode(f)
	}
	for _, f := range t.manifest.Files() {
		if !g.HasNode(f) {
			if !t.IsDisabled(f) {
				logging.Warnf("Tree: %s names '%s', which does not exist.", ManifestName, f)
			}
			continue
		}
		for _, need := range t.manifest[f] {
			if !g.HasNode(need) {
				if !t.IsDisabled(need) {
					logging.Warnf("Tree: '%s' needs '%s', which does not exist.", f, need)
				}
				continue
			}
			g.PutEdge(need, f, graph.Relation{Label: "needed by", Policy: graph.PruneWhenAnyRemoved})
		}
	}
	return g, nil
}

func (fileOps) RemoveElement(t *Tree, file string) error {
	return t.Disable(file)
}

func (fileOps) RestoreElement(t *Tree, file string) error {
	return t.Enable(file)
}

func (fileOps) Describe(file string) string {
	return file
}

// NewManipulator returns the manipulator for the files of a tree.
func NewManipulator() *manip.Manipulator[string, *Tree] {
	return manip.New[string, *Tree](Title, fileOps{})
}
