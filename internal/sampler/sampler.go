// Package sampler draws collocation and boundary points over a rectangular
// domain.
//
// Every draw goes through an explicitly threaded Rand whose Split method
// derives an independent child stream, so no two batches in a training run
// ever consume the same random state while identical seeds still reproduce
// identical datasets bit for bit.
package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidDomain reports a span whose minimum is not below its maximum.
var ErrInvalidDomain = errors.New("sampler: invalid domain span")

// Domain is an axis-aligned rectangle [X0, X1] × [Y0, Y1].
//
// A Domain is immutable for the lifetime of a problem instance.
type Domain struct {
	X0, X1 float64
	Y0, Y1 float64
}

// NewDomain validates the spans and returns the rectangle.
func NewDomain(x0, x1, y0, y1 float64) (Domain, error) {
	if x0 >= x1 {
		return Domain{}, fmt.Errorf("%w: x span [%g, %g]", ErrInvalidDomain, x0, x1)
	}
	if y0 >= y1 {
		return Domain{}, fmt.Errorf("%w: y span [%g, %g]", ErrInvalidDomain, y0, y1)
	}
	return Domain{X0: x0, X1: x1, Y0: y0, Y1: y1}, nil
}

// Width returns the x extent.
func (d Domain) Width() float64 { return d.X1 - d.X0 }

// Height returns the y extent.
func (d Domain) Height() float64 { return d.Y1 - d.Y0 }

// Rand is an explicitly threaded pseudo-random stream.
//
// Rand is a splittable wrapper over math/rand/v2 PCG: Split derives a child
// stream from the parent state, advancing the parent so the two never
// overlap. Training code hands each batch its own split.
type Rand struct {
	rng *rand.Rand
}

// NewRand creates a stream from a seed. Identical seeds produce identical
// streams.
func NewRand(seed uint64) *Rand {
	return &Rand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Split derives an independent child stream and advances the parent.
func (r *Rand) Split() *Rand {
	return &Rand{rng: rand.New(rand.NewPCG(r.rng.Uint64(), r.rng.Uint64()))}
}

// Float64 returns a uniform sample in [0, 1).
func (r *Rand) Float64() float64 { return r.rng.Float64() }

// Uniform returns a uniform sample in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.rng.Float64()
}

// Batch is one homogeneous set of sample locations. Xs and Ys always have
// equal length.
type Batch struct {
	Xs []float64
	Ys []float64
}

// Len returns the number of points in the batch.
func (b Batch) Len() int { return len(b.Xs) }

// Dataset is the five batches produced together for one training step:
// interior collocation points plus the four boundary edges.
type Dataset struct {
	Interior Batch
	Left     Batch // x = X0
	Right    Batch // x = X1
	Bottom   Batch // y = Y0
	Top      Batch // y = Y1
}

// Sample draws one Dataset: interior points uniform over the rectangle,
// each edge with one coordinate uniform along the edge and the other pinned
// to the boundary value.
//
// Each of the five batches consumes its own split of r.
func Sample(r *Rand, d Domain, interior, perEdge int) Dataset {
	return Dataset{
		Interior: sampleInterior(r.Split(), d, interior),
		Left:     sampleEdgeY(r.Split(), d, d.X0, perEdge),
		Right:    sampleEdgeY(r.Split(), d, d.X1, perEdge),
		Bottom:   sampleEdgeX(r.Split(), d, d.Y0, perEdge),
		Top:      sampleEdgeX(r.Split(), d, d.Y1, perEdge),
	}
}

func sampleInterior(r *Rand, d Domain, n int) Batch {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = r.Uniform(d.X0, d.X1)
		ys[i] = r.Uniform(d.Y0, d.Y1)
	}
	return Batch{Xs: xs, Ys: ys}
}

// sampleEdgeY samples a vertical edge at the given x.
func sampleEdgeY(r *Rand, d Domain, x float64, n int) Batch {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = x
		ys[i] = r.Uniform(d.Y0, d.Y1)
	}
	return Batch{Xs: xs, Ys: ys}
}

// sampleEdgeX samples a horizontal edge at the given y.
func sampleEdgeX(r *Rand, d Domain, y float64, n int) Batch {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = r.Uniform(d.X0, d.X1)
		ys[i] = y
	}
	return Batch{Xs: xs, Ys: ys}
}
