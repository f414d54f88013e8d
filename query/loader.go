package query

import (
	"fmt"

	"github.com/o0olele/barneshut-go/builder"
	"github.com/o0olele/barneshut-go/octree"
)

// LoadAndQuery loads a snapshot, builds its trees and creates the queryer (one-stop)
func LoadAndQuery(filename string, theta float32) (*ForceQuery, *builder.Snapshot, error) {
	// Load the snapshot
	snapshot, err := builder.Load(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	rules, err := NewRules(int(snapshot.Kinds), snapshot.Rules)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create rules: %w", err)
	}

	// Build the trees
	b := builder.NewBuilder(int(snapshot.Kinds), octree.DefaultMaxDepth, octree.DefaultMinSize)
	if err := b.Build(snapshot.Bodies); err != nil {
		return nil, nil, fmt.Errorf("failed to build trees: %w", err)
	}

	// Create the queryer
	query, err := NewForceQuery(b, rules, theta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create force query: %w", err)
	}

	return query, snapshot, nil
}
