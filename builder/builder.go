package builder

import (
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/o0olele/barneshut-go/geometry"
	"github.com/o0olele/barneshut-go/octree"
)

// Builder 按种类构建八叉树，每个种类一棵树
type Builder struct {
	kinds    int
	maxDepth uint8
	minSize  float32
	trees    []*octree.Tree[uint32]
	bounds   []geometry.AABB
}

// NewBuilder 创建新的构建器
func NewBuilder(kinds int, maxDepth uint8, minSize float32) *Builder {
	return &Builder{
		kinds:    kinds,
		maxDepth: maxDepth,
		minSize:  minSize,
	}
}

func (b *Builder) GetKinds() int {
	return b.kinds
}

// GetTrees returns the trees of the last Build, indexed by kind.
func (b *Builder) GetTrees() []*octree.Tree[uint32] {
	return b.trees
}

func (b *Builder) GetTree(kind int) *octree.Tree[uint32] {
	if kind < 0 || kind >= len(b.trees) {
		return nil
	}
	return b.trees[kind]
}

func (b *Builder) GetBounds() []geometry.AABB {
	return b.bounds
}

// KindBounds folds the positions of each kind into its own box. Kinds without
// bodies keep an empty (invalid) box.
func KindBounds(bodies []Body, kinds int) []geometry.AABB {
	bounds := make([]geometry.AABB, kinds)
	for i := range bounds {
		bounds[i] = geometry.EmptyAABB()
	}
	for i := range bodies {
		if k := int(bodies[i].Kind); k < kinds {
			bounds[k].Extend(bodies[i].Position)
		}
	}
	return bounds
}

// Build 构建所有种类的八叉树，替换上一次的结果
func (b *Builder) Build(bodies []Body) error {
	startTime := time.Now()

	for i := range bodies {
		if int(bodies[i].Kind) >= b.kinds {
			return fmt.Errorf("body %d has invalid kind: %d", bodies[i].ID, bodies[i].Kind)
		}
	}

	b.bounds = KindBounds(bodies, b.kinds)
	b.trees = make([]*octree.Tree[uint32], b.kinds)
	for k, bounds := range b.bounds {
		if !bounds.IsValid() {
			// nothing of this kind; the tree stays empty
			bounds = geometry.AABB{}
		}
		b.trees[k] = octree.NewWithLimits[uint32](bounds.Min, bounds.Max, b.maxDepth, b.minSize)
	}

	for i := range bodies {
		body := &bodies[i]
		b.trees[body.Kind].Insert(body.ID, body.Position, body.Mass)
	}

	log.WithFields(log.Fields{
		"kinds":  b.kinds,
		"bodies": len(bodies),
	}).Debugf("Octrees built in %v", time.Since(startTime))

	return nil
}

// Stats 统计每棵树的节点信息
func (b *Builder) Stats() []octree.Stats {
	stats := make([]octree.Stats, len(b.trees))
	for k, tree := range b.trees {
		stats[k] = tree.Stats()
	}
	return stats
}

// GetMemoryUsage 获取构建过程的内存使用情况
func (b *Builder) GetMemoryUsage() BuildMemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := BuildMemoryStats{
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		NumGC:      m.NumGC,
	}

	for _, s := range b.Stats() {
		stats.OctreeNodes += s.Nodes
		stats.Bodies += s.Bodies
	}

	return stats
}

// BuildMemoryStats 构建过程的内存统计
type BuildMemoryStats struct {
	TotalAlloc  uint64 `json:"total_alloc"` // 总分配内存
	Sys         uint64 `json:"sys"`         // 系统内存
	HeapAlloc   uint64 `json:"heap_alloc"`  // 堆内存
	HeapSys     uint64 `json:"heap_sys"`    // 堆系统内存
	NumGC       uint32 `json:"num_gc"`      // GC次数
	OctreeNodes int    `json:"octree_nodes"` // 节点数量
	Bodies      int    `json:"bodies"`      // 粒子数量
}
