package query

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dgravesa/go-parallel/parallel"
	log "github.com/sirupsen/logrus"

	"github.com/o0olele/barneshut-go/builder"
	"github.com/o0olele/barneshut-go/math32"
	"github.com/o0olele/barneshut-go/octree"
)

// ForceQuery 力查询器，只负责运行时查询，树由 builder 构建
type ForceQuery struct {
	builder *builder.Builder
	rules   *Rules
	theta   float32
	workers int
}

// NewForceQuery 创建新的力查询器
func NewForceQuery(b *builder.Builder, rules *Rules, theta float32) (*ForceQuery, error) {
	if rules.GetKinds() != b.GetKinds() {
		return nil, fmt.Errorf("kind count mismatch: builder has %d, rules have %d", b.GetKinds(), rules.GetKinds())
	}
	if theta < 0 || !math32.IsFinite(theta) {
		return nil, fmt.Errorf("invalid theta: %f", theta)
	}

	return &ForceQuery{
		builder: b,
		rules:   rules,
		theta:   theta,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

func (fq *ForceQuery) GetTheta() float32 {
	return fq.theta
}

func (fq *ForceQuery) SetTheta(theta float32) {
	fq.theta = theta
}

func (fq *ForceQuery) GetRules() *Rules {
	return fq.rules
}

// SetWorkers sets how many goroutines Forces uses; values below 1 mean one.
func (fq *ForceQuery) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	fq.workers = workers
}

// Force returns the net force on body summed over every kind's tree.
func (fq *ForceQuery) Force(body *builder.Body) math32.Vector3 {
	var force math32.Vector3
	for k, tree := range fq.builder.GetTrees() {
		rule := fq.rules.Get(int(body.Kind), k)
		force = force.Add(tree.Force(body.ID, body.Position, rule.Force, rule.DistanceExp, fq.theta))
	}
	return force
}

// Forces evaluates Force for every body concurrently. out is reused when it is
// long enough.
func (fq *ForceQuery) Forces(bodies []builder.Body, out []math32.Vector3) []math32.Vector3 {
	startTime := time.Now()

	if cap(out) < len(bodies) {
		out = make([]math32.Vector3, len(bodies))
	}
	out = out[:len(bodies)]

	parallel.WithNumGoroutines(fq.workers).For(len(bodies), func(i, _ int) {
		out[i] = fq.Force(&bodies[i])
	})

	log.WithFields(log.Fields{
		"bodies":  len(bodies),
		"workers": fq.workers,
	}).Debugf("Forces took %v", time.Since(startTime))

	return out
}

// PointMasses returns the contributors of kind's tree accepted for body.
func (fq *ForceQuery) PointMasses(body *builder.Body, kind int) []octree.PointMass {
	tree := fq.builder.GetTree(kind)
	if tree == nil {
		return nil
	}
	return tree.PointMasses(body.ID, body.Position, fq.theta)
}

// GetStats 获取统计信息
func (fq *ForceQuery) GetStats() QueryStats {
	stats := QueryStats{
		Kinds:   fq.rules.GetKinds(),
		Theta:   fq.theta,
		Workers: fq.workers,
	}
	for _, s := range fq.builder.Stats() {
		stats.Bodies += s.Bodies
		stats.Nodes += s.Nodes
	}
	return stats
}

// QueryStats 查询统计信息
type QueryStats struct {
	Kinds   int     `json:"kinds"`   // 种类数量
	Bodies  int     `json:"bodies"`  // 粒子数量
	Nodes   int     `json:"nodes"`   // 节点数量
	Theta   float32 `json:"theta"`   // 近似参数
	Workers int     `json:"workers"` // 并发数
}
