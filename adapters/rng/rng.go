// Package rng provides deterministic seeded random streams behind
// ports.RNGPort. Stream identity is derived from the operation name and the
// base seed, so concurrent fits each get an independent, reproducible
// generator regardless of scheduling order.
package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// Adapter implements ports.RNGPort with name-keyed derived seeds
type Adapter struct{}

// NewAdapter creates the RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(deriveSeed(name, seed))), nil
}

// Stream creates a deterministic RNG stream for a specific run/stage/model
func (a *Adapter) Stream(ctx context.Context, runID, stageName, modelName string, baseSeed int64) (*rand.Rand, error) {
	key := fmt.Sprintf("%s/%s/%s", runID, stageName, modelName)
	return a.SeededStream(ctx, key, baseSeed)
}

// ValidateSeed ensures the seed produces expected deterministic results
func (a *Adapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	stream, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		got := stream.Float64()
		if math.Abs(got-want) > 1e-12 {
			return fmt.Errorf("seed validation failed for %q at draw %d: got %v, want %v", name, i, got, want)
		}
	}
	return nil
}

// deriveSeed mixes the stream name into the base seed so distinct operations
// never share a generator state.
func deriveSeed(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
