package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/o0olele/barneshut-go/builder"
	"github.com/o0olele/barneshut-go/math32"
	"github.com/o0olele/barneshut-go/octree"
	"github.com/o0olele/barneshut-go/query"
)

// Simulator steps a particle system: every tick it rebuilds one tree per kind,
// queries the net force on each body and integrates.
type Simulator struct {
	config  Config
	tick    uint64
	bodies  []builder.Body
	forces  []math32.Vector3
	rules   *query.Rules
	builder *builder.Builder
	query   *query.ForceQuery
}

// NewSimulator spawns cfg.Particles bodies with uniformly random kinds and
// positions and draws a random rule matrix, all from cfg.Seed.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	rules := query.RandomRules(rng, cfg.Kinds, cfg.MaxForce, cfg.MinDistanceExp, cfg.MaxDistanceExp)

	span := cfg.SpawnMax - cfg.SpawnMin
	bodies := make([]builder.Body, cfg.Particles)
	for i := range bodies {
		bodies[i] = builder.Body{
			ID:   uint32(i),
			Kind: uint32(rng.Intn(cfg.Kinds)),
			Position: math32.Vector3{
				X: cfg.SpawnMin + rng.Float32()*span,
				Y: cfg.SpawnMin + rng.Float32()*span,
				Z: cfg.SpawnMin + rng.Float32()*span,
			},
			Mass: cfg.Mass,
		}
	}

	return newSimulator(cfg, 0, rules, bodies)
}

// FromSnapshot resumes a saved system. The snapshot's kinds and rules replace
// the ones in cfg.
func FromSnapshot(cfg Config, snapshot *builder.Snapshot) (*Simulator, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	cfg.Kinds = int(snapshot.Kinds)
	cfg.Particles = len(snapshot.Bodies)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := query.NewRules(cfg.Kinds, append([]builder.Rule(nil), snapshot.Rules...))
	if err != nil {
		return nil, err
	}
	bodies := append([]builder.Body(nil), snapshot.Bodies...)

	return newSimulator(cfg, snapshot.Tick, rules, bodies)
}

// Load resumes the system saved in filename.
func Load(cfg Config, filename string) (*Simulator, error) {
	snapshot, err := builder.Load(filename)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(cfg, snapshot)
}

func newSimulator(cfg Config, tick uint64, rules *query.Rules, bodies []builder.Body) (*Simulator, error) {
	b := builder.NewBuilder(cfg.Kinds, cfg.MaxDepth, cfg.MinSize)
	fq, err := query.NewForceQuery(b, rules, cfg.Theta)
	if err != nil {
		return nil, err
	}
	if cfg.Workers > 0 {
		fq.SetWorkers(cfg.Workers)
	}

	log.WithFields(log.Fields{
		"kinds":  cfg.Kinds,
		"bodies": len(bodies),
		"tick":   tick,
	}).Info("Simulator created")

	return &Simulator{
		config:  cfg,
		tick:    tick,
		bodies:  bodies,
		rules:   rules,
		builder: b,
		query:   fq,
	}, nil
}

func (s *Simulator) Config() Config {
	return s.config
}

func (s *Simulator) Tick() uint64 {
	return s.tick
}

func (s *Simulator) Rules() *query.Rules {
	return s.rules
}

// Bodies returns a copy of the current body states.
func (s *Simulator) Bodies() []builder.Body {
	return append([]builder.Body(nil), s.bodies...)
}

// Forces returns the forces computed by the last Step.
func (s *Simulator) Forces() []math32.Vector3 {
	return append([]math32.Vector3(nil), s.forces...)
}

// Stats returns the per-kind statistics of the trees built by the last Step.
func (s *Simulator) Stats() []octree.Stats {
	return s.builder.Stats()
}

// Step advances the system by one tick.
func (s *Simulator) Step() error {
	startTime := time.Now()

	if err := s.builder.Build(s.bodies); err != nil {
		return fmt.Errorf("failed to build trees: %w", err)
	}
	s.forces = s.query.Forces(s.bodies, s.forces)
	s.integrate()
	s.tick++

	log.WithFields(log.Fields{
		"tick":   s.tick,
		"bodies": len(s.bodies),
	}).Debugf("Step took %v", time.Since(startTime))

	return nil
}

// integrate applies semi-implicit Euler: velocity first, then position with
// the new velocity. Bodies with non-positive mass keep their velocity.
func (s *Simulator) integrate() {
	dt := s.config.Dt
	for i := range s.bodies {
		body := &s.bodies[i]
		if body.Mass > 0 {
			body.Velocity = body.Velocity.Add(s.forces[i].Mul(dt / body.Mass))
		}
		if s.config.MaxSpeed > 0 {
			if speed := body.Velocity.Length(); speed > s.config.MaxSpeed {
				body.Velocity = body.Velocity.Mul(s.config.MaxSpeed / speed)
			}
		}
		body.Position = body.Position.Add(body.Velocity.Mul(dt))
	}
}

// Run performs up to steps ticks, stopping early when ctx is done.
func (s *Simulator) Run(ctx context.Context, steps int) error {
	startTime := time.Now()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"steps": steps,
		"tick":  s.tick,
	}).Infof("Run took %v", time.Since(startTime))

	return nil
}

// Snapshot captures the current state for builder.Save.
func (s *Simulator) Snapshot() *builder.Snapshot {
	return &builder.Snapshot{
		Tick:   s.tick,
		Kinds:  uint32(s.config.Kinds),
		Rules:  append([]builder.Rule(nil), s.rules.Table()...),
		Bodies: s.Bodies(),
	}
}

// Save writes the current state to filename.
func (s *Simulator) Save(filename string) error {
	return builder.Save(s.Snapshot(), filename)
}
