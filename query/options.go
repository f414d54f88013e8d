package query

import (
	"fmt"
	"math/rand"

	"github.com/o0olele/barneshut-go/builder"
)

// Rule is the interaction a body of one kind feels from another kind.
type Rule = builder.Rule

// Rules 种类间的相互作用矩阵
type Rules struct {
	kinds int
	table []Rule
}

// NewRules wraps a row-major kinds×kinds table: the rule for a body of kind a
// acted on by kind b is table[a*kinds+b].
func NewRules(kinds int, table []Rule) (*Rules, error) {
	if kinds <= 0 {
		return nil, fmt.Errorf("invalid kind count: %d", kinds)
	}
	if len(table) != kinds*kinds {
		return nil, fmt.Errorf("rule count mismatch: expected %d, got %d", kinds*kinds, len(table))
	}
	return &Rules{kinds: kinds, table: table}, nil
}

// RandomRules draws every force uniformly from [-maxForce, maxForce] and every
// distance exponent uniformly from [minExp, maxExp].
func RandomRules(rng *rand.Rand, kinds int, maxForce float32, minExp, maxExp int32) *Rules {
	table := make([]Rule, kinds*kinds)
	for i := range table {
		table[i] = Rule{
			Force:       2 * maxForce * (rng.Float32() - 0.5),
			DistanceExp: int32(int64(minExp) + rng.Int63n(int64(maxExp)-int64(minExp)+1)),
		}
	}
	return &Rules{kinds: kinds, table: table}
}

func (r *Rules) GetKinds() int {
	return r.kinds
}

// Get returns the rule for a body of kind a acted on by bodies of kind b.
func (r *Rules) Get(a, b int) Rule {
	return r.table[a*r.kinds+b]
}

// Table returns the row-major rule table.
func (r *Rules) Table() []Rule {
	return r.table
}
