// Copyright 2025 SPINN ML Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sampler provides the domain, splittable random streams and the
// collocation/boundary point sampler.
package sampler

import (
	"github.com/spinn-ml/spinn/internal/sampler"
)

// Domain is an axis-aligned rectangle.
type Domain = sampler.Domain

// NewDomain validates the spans and returns the rectangle.
func NewDomain(x0, x1, y0, y1 float64) (Domain, error) {
	return sampler.NewDomain(x0, x1, y0, y1)
}

// ErrInvalidDomain reports a span whose minimum is not below its maximum.
var ErrInvalidDomain = sampler.ErrInvalidDomain

// Rand is an explicitly threaded, splittable pseudo-random stream.
type Rand = sampler.Rand

// NewRand creates a stream from a seed.
func NewRand(seed uint64) *Rand {
	return sampler.NewRand(seed)
}

// Batch is one homogeneous set of sample locations.
type Batch = sampler.Batch

// Dataset is the five batches produced together for one training step.
type Dataset = sampler.Dataset

// Sample draws one Dataset over the domain.
func Sample(r *Rand, d Domain, interior, perEdge int) Dataset {
	return sampler.Sample(r, d, interior, perEdge)
}
