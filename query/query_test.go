package query

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/o0olele/barneshut-go/builder"
	"github.com/o0olele/barneshut-go/math32"
	"github.com/o0olele/barneshut-go/octree"
)

func randomSystem(rng *rand.Rand, kinds, n int) []builder.Body {
	bodies := make([]builder.Body, n)
	for i := range bodies {
		bodies[i] = builder.Body{
			ID:   uint32(i),
			Kind: uint32(rng.Intn(kinds)),
			Position: math32.Vector3{
				X: rng.Float32()*2 - 1,
				Y: rng.Float32()*2 - 1,
				Z: rng.Float32()*2 - 1,
			},
			Mass: 1,
		}
	}
	return bodies
}

func newQuery(t *testing.T, kinds int, bodies []builder.Body, rules *Rules, theta float32) *ForceQuery {
	t.Helper()
	b := builder.NewBuilder(kinds, octree.DefaultMaxDepth, octree.DefaultMinSize)
	if err := b.Build(bodies); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fq, err := NewForceQuery(b, rules, theta)
	if err != nil {
		t.Fatalf("NewForceQuery failed: %v", err)
	}
	return fq
}

func TestRandomRules(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rules := RandomRules(rng, 4, 1e-5, -2, 1)

	if len(rules.Table()) != 16 {
		t.Fatalf("rules = %d, want 16", len(rules.Table()))
	}
	for i, rule := range rules.Table() {
		if rule.Force < -1e-5 || rule.Force > 1e-5 {
			t.Fatalf("rule %d force %v outside [-1e-5, 1e-5]", i, rule.Force)
		}
		if rule.DistanceExp < -2 || rule.DistanceExp > 1 {
			t.Fatalf("rule %d exponent %d outside [-2, 1]", i, rule.DistanceExp)
		}
	}
	if rules.Get(2, 3) != rules.Table()[2*4+3] {
		t.Fatalf("Get(2, 3) does not index row-major")
	}

	// the full int32 exponent range does not overflow the draw
	wide := RandomRules(rng, 3, 1, math.MinInt32, math.MaxInt32)
	if len(wide.Table()) != 9 {
		t.Fatalf("wide rules = %d, want 9", len(wide.Table()))
	}
	if rule := RandomRules(rng, 1, 1, math.MaxInt32, math.MaxInt32).Get(0, 0); rule.DistanceExp != math.MaxInt32 {
		t.Fatalf("exponent = %d, want %d", rule.DistanceExp, math.MaxInt32)
	}
}

func TestNewRulesRejectsBadTable(t *testing.T) {
	if _, err := NewRules(0, nil); err == nil {
		t.Fatalf("NewRules accepted zero kinds")
	}
	if _, err := NewRules(2, make([]Rule, 3)); err == nil {
		t.Fatalf("NewRules accepted a short table")
	}
}

func TestForceSumsOverKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const kinds = 3
	bodies := randomSystem(rng, kinds, 200)
	rules := RandomRules(rng, kinds, 1e-5, -2, 1)
	fq := newQuery(t, kinds, bodies, rules, 0)

	// theta 0 is the exact pairwise sum
	for _, body := range bodies[:30] {
		var want math32.Vector3
		var scale float32
		for _, other := range bodies {
			if other.ID == body.ID {
				continue
			}
			rule := rules.Get(int(body.Kind), int(other.Kind))
			f := octree.PairForce(body.Position, other.Position, other.Mass, rule.Force, rule.DistanceExp)
			want = want.Add(f)
			scale += f.Length()
		}
		got := fq.Force(&body)
		if diff := got.Sub(want).Length(); diff > 1e-4*scale {
			t.Fatalf("body %d: force = %v, want %v", body.ID, got, want)
		}
	}
}

func TestForcesMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const kinds = 4
	bodies := randomSystem(rng, kinds, 1000)
	fq := newQuery(t, kinds, bodies, RandomRules(rng, kinds, 1e-5, -2, 1), 1)

	for _, workers := range []int{1, 3, 8} {
		fq.SetWorkers(workers)
		forces := fq.Forces(bodies, nil)
		if len(forces) != len(bodies) {
			t.Fatalf("workers %d: forces = %d, want %d", workers, len(forces), len(bodies))
		}
		for i := range bodies {
			if want := fq.Force(&bodies[i]); forces[i] != want {
				t.Fatalf("workers %d body %d: %v, want %v", workers, i, forces[i], want)
			}
		}
	}

	// a long enough buffer is reused
	buf := make([]math32.Vector3, len(bodies)+5)
	out := fq.Forces(bodies, buf)
	if &out[0] != &buf[0] || len(out) != len(bodies) {
		t.Fatalf("Forces did not reuse the output buffer")
	}
}

func TestPointMasses(t *testing.T) {
	bodies := []builder.Body{
		{ID: 0, Kind: 0, Position: math32.Vector3{X: -0.5}, Mass: 1},
		{ID: 1, Kind: 0, Position: math32.Vector3{X: 0.5}, Mass: 1},
		{ID: 2, Kind: 1, Position: math32.Vector3{Y: 0.5}, Mass: 3},
	}
	rules, _ := NewRules(2, make([]Rule, 4))
	fq := newQuery(t, 2, bodies, rules, 0.5)

	if pm := fq.PointMasses(&bodies[0], 0); len(pm) != 1 || pm[0].Position != bodies[1].Position {
		t.Fatalf("kind 0 point masses for body 0 = %v", pm)
	}
	if pm := fq.PointMasses(&bodies[0], 1); len(pm) != 1 || pm[0].Mass != 3 {
		t.Fatalf("kind 1 point masses for body 0 = %v", pm)
	}
	if pm := fq.PointMasses(&bodies[0], 5); pm != nil {
		t.Fatalf("unknown kind returned %v", pm)
	}

	stats := fq.GetStats()
	if stats.Kinds != 2 || stats.Bodies != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestNewForceQueryRejectsMismatch(t *testing.T) {
	b := builder.NewBuilder(3, octree.DefaultMaxDepth, octree.DefaultMinSize)
	rules, _ := NewRules(2, make([]Rule, 4))
	if _, err := NewForceQuery(b, rules, 1); err == nil {
		t.Fatalf("NewForceQuery accepted mismatched kinds")
	}
	rules, _ = NewRules(3, make([]Rule, 9))
	if _, err := NewForceQuery(b, rules, -1); err == nil {
		t.Fatalf("NewForceQuery accepted a negative theta")
	}
}

func TestLoadAndQuery(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const kinds = 2
	bodies := randomSystem(rng, kinds, 100)
	rules := RandomRules(rng, kinds, 1e-5, -2, 1)

	filename := filepath.Join(t.TempDir(), "snapshot.bhnb")
	snapshot := &builder.Snapshot{Tick: 7, Kinds: kinds, Rules: rules.Table(), Bodies: bodies}
	if err := builder.Save(snapshot, filename); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	fq, loaded, err := LoadAndQuery(filename, 0.8)
	if err != nil {
		t.Fatalf("LoadAndQuery failed: %v", err)
	}
	if loaded.Tick != 7 || len(loaded.Bodies) != len(bodies) {
		t.Fatalf("loaded snapshot tick %d bodies %d", loaded.Tick, len(loaded.Bodies))
	}

	direct := newQuery(t, kinds, bodies, rules, 0.8)
	for i := range bodies[:20] {
		if got, want := fq.Force(&loaded.Bodies[i]), direct.Force(&bodies[i]); got != want {
			t.Fatalf("body %d: loaded force %v, direct %v", i, got, want)
		}
	}

	if _, _, err := LoadAndQuery(filepath.Join(t.TempDir(), "missing"), 1); err == nil {
		t.Fatalf("LoadAndQuery accepted a missing file")
	}
}
