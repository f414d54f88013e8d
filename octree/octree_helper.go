package octree

import (
	"encoding/json"

	"github.com/o0olele/barneshut-go/math32"
)

// Stats describes the shape of a built tree.
type Stats struct {
	Bodies       int     `json:"bodies"`
	Nodes        int     `json:"nodes"`
	Empty        int     `json:"empty"`
	Leaves       int     `json:"leaves"`
	MergedLeaves int     `json:"merged_leaves"`
	Internal     int     `json:"internal"`
	MaxDepth     int     `json:"max_depth"`
	Mass         float32 `json:"mass"`
}

// Stats counts nodes by kind and reports the deepest level reached.
func (t *Tree[T]) Stats() Stats {
	stats := Stats{Bodies: t.count, Mass: t.root.mass}
	countNodes(&t.root, &stats)
	return stats
}

func countNodes[T comparable](node *Node[T], stats *Stats) {
	stats.Nodes++
	if d := int(node.depth); d > stats.MaxDepth {
		stats.MaxDepth = d
	}

	switch node.kind {
	case kindEmpty:
		stats.Empty++
	case kindLeaf:
		stats.Leaves++
		if node.merged != nil {
			stats.MergedLeaves++
		}
	case kindInternal:
		stats.Internal++
		for i := range node.children {
			countNodes(&node.children[i], stats)
		}
	}
}

// 用于JSON序列化的简化结构
type TreeExport[T comparable] struct {
	Root     *NodeExport[T] `json:"root"`
	Bodies   int            `json:"bodies"`
	MaxDepth uint8          `json:"max_depth"`
	MinSize  float32        `json:"min_size"`
}

type NodeExport[T comparable] struct {
	Kind         string           `json:"kind"`
	Midpoint     math32.Vector3   `json:"midpoint"`
	Size         float32          `json:"size"`
	Depth        uint8            `json:"depth"`
	Mass         float32          `json:"mass"`
	CenterOfMass math32.Vector3   `json:"center_of_mass"`
	Bodies       int              `json:"bodies"`
	IDs          []T              `json:"ids,omitempty"`
	Children     []*NodeExport[T] `json:"children,omitempty"`
}

// Export converts the tree into its serializable form.
func (t *Tree[T]) Export() *TreeExport[T] {
	return &TreeExport[T]{
		Root:     nodeToExport(&t.root),
		Bodies:   t.count,
		MaxDepth: t.limits.maxDepth,
		MinSize:  t.limits.minSize,
	}
}

// ToJSON 导出八叉树为JSON
func (t *Tree[T]) ToJSON() ([]byte, error) {
	return json.Marshal(t.Export())
}

func nodeToExport[T comparable](node *Node[T]) *NodeExport[T] {
	export := &NodeExport[T]{
		Kind:         node.kind.String(),
		Midpoint:     node.midpoint,
		Size:         node.size,
		Depth:        node.depth,
		Mass:         node.mass,
		CenterOfMass: node.centerOfMass,
		Bodies:       int(node.count),
	}

	switch node.kind {
	case kindLeaf:
		if node.merged == nil {
			export.IDs = []T{node.id}
			break
		}
		for _, e := range node.merged {
			export.IDs = append(export.IDs, e.id)
		}
	case kindInternal:
		for i := range node.children {
			export.Children = append(export.Children, nodeToExport(&node.children[i]))
		}
	}

	return export
}
