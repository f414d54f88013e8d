package builder

import (
	"errors"
	"fmt"

	"github.com/o0olele/barneshut-go/geometry"
	"github.com/o0olele/barneshut-go/math32"
)

// 文件格式常量
const (
	SNAPSHOT_FILE_MAGIC   = 0x42484E42 // "BHNB"
	SNAPSHOT_FILE_VERSION = 1
)

var (
	ErrInvalidMagic       = errors.New("invalid file format: magic number mismatch")
	ErrUnsupportedVersion = errors.New("unsupported file version")
)

// FileHeader 快照文件头
type FileHeader struct {
	Magic   uint32 // 文件魔数
	Version uint32 // 版本号
}

// Body is one particle. Its layout is also its on-disk record.
type Body struct {
	ID       uint32         `json:"id"`
	Kind     uint32         `json:"kind"`
	Position math32.Vector3 `json:"position"`
	Velocity math32.Vector3 `json:"velocity"`
	Mass     float32        `json:"mass"`
}

// Rule is the interaction a body of one kind feels from bodies of another.
type Rule struct {
	Force       float32 `json:"force"`
	DistanceExp int32   `json:"distance_exp"`
}

// Snapshot 粒子系统快照
type Snapshot struct {
	Tick   uint64 `json:"tick"`
	Kinds  uint32 `json:"kinds"`
	Rules  []Rule `json:"rules"`
	Bodies []Body `json:"bodies"`
}

// GetDataSize 计算快照数据的大小（字节）
func (s *Snapshot) GetDataSize() int {
	size := 8     // header
	size += 8     // tick
	size += 4     // kind count
	size += 4     // rule count
	size += 4 * 2 * len(s.Rules)
	size += 4 // body count
	size += (4 + 4 + 4*3 + 4*3 + 4) * len(s.Bodies)
	return size
}

// GetBodyCount 获取粒子数量
func (s *Snapshot) GetBodyCount() int {
	return len(s.Bodies)
}

// Bounds returns the box around every body.
func (s *Snapshot) Bounds() geometry.AABB {
	bounds := geometry.EmptyAABB()
	for i := range s.Bodies {
		bounds.Extend(s.Bodies[i].Position)
	}
	return bounds
}

// Validate 验证快照数据的完整性
func (s *Snapshot) Validate() error {
	if s.Kinds == 0 {
		return fmt.Errorf("snapshot has no kinds")
	}

	if want := int(s.Kinds) * int(s.Kinds); len(s.Rules) != want {
		return fmt.Errorf("rule count mismatch: expected %d, got %d", want, len(s.Rules))
	}

	for i, rule := range s.Rules {
		if !math32.IsFinite(rule.Force) {
			return fmt.Errorf("rule %d has non-finite force: %f", i, rule.Force)
		}
	}

	for i, body := range s.Bodies {
		if body.Kind >= s.Kinds {
			return fmt.Errorf("body %d has invalid kind: %d", i, body.Kind)
		}
		if !body.Position.IsFinite() || !body.Velocity.IsFinite() || !math32.IsFinite(body.Mass) {
			return fmt.Errorf("body %d has non-finite state", i)
		}
	}

	return nil
}
