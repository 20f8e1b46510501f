// Copyright 2025 SPINN ML Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the building blocks of the meshless field network:
// basis layer, activation kernels and the partition-of-unity field network,
// together with checkpoint save/load.
//
// Example:
//
//	free, fixed := nn.SampleNodes(r, domain, 64, 9)
//	net, err := nn.NewFieldNetwork(free, fixed, nn.GaussianKernel{}, r)
//	if err != nil {
//	    return err
//	}
//	u := net.At(0.5, 0.5)
package nn

import (
	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/sampler"
	"github.com/spinn-ml/spinn/internal/serialization"
)

// Parameter represents a trainable parameter vector.
type Parameter = nn.Parameter

// NewParameter creates a new trainable parameter owning data.
func NewParameter(name string, data []float64) *Parameter {
	return nn.NewParameter(name, data)
}

// Frozen represents a gradient-blocked, read-only parameter vector.
type Frozen = nn.Frozen

// NewFrozen creates a gradient-blocked vector owning data.
func NewFrozen(name string, data []float64) *Frozen {
	return nn.NewFrozen(name, data)
}

// Point is a 2D node position.
type Point = nn.Point

// BasisLayer maps a query point to normalized offsets from every center.
type BasisLayer = nn.BasisLayer

// NewBasisLayer builds a layer from free and fixed node sets.
func NewBasisLayer(free, fixed []Point) (*BasisLayer, error) {
	return nn.NewBasisLayer(free, fixed)
}

// ErrDegenerateGeometry reports a center set with a non-positive shared
// bandwidth.
var ErrDegenerateGeometry = nn.ErrDegenerateGeometry

// Kernel is a localized, twice-differentiable bump activation.
type Kernel = nn.Kernel

// GaussianKernel is the Gaussian bump exp(−0.5(u² + v²)).
type GaussianKernel = nn.GaussianKernel

// BumpKernel is the softplus-based compact bump.
type BumpKernel = nn.BumpKernel

// KernelByName resolves a kernel from its checkpoint name.
func KernelByName(name string) (Kernel, error) {
	return nn.KernelByName(name)
}

// FieldNetwork is the meshless scalar field u(x, y).
type FieldNetwork = nn.FieldNetwork

// NewFieldNetwork builds a network over the given node sets.
func NewFieldNetwork(free, fixed []Point, kernel Kernel, r *sampler.Rand) (*FieldNetwork, error) {
	return nn.NewFieldNetwork(free, fixed, kernel, r)
}

// FieldFunc is a FieldNetwork bound to a gradient tape.
type FieldFunc = nn.FieldFunc

// SampleNodes produces initial free (interior) and fixed (boundary) node
// sets over a domain.
func SampleNodes(r *sampler.Rand, d sampler.Domain, interior, perEdge int) (free, fixed []Point) {
	return nn.SampleNodes(r, d, interior, perEdge)
}

// Save writes a network's state dictionary to a .spinn file.
func Save(net *FieldNetwork, path string, metadata map[string]string) error {
	return nn.Save(net, path, metadata)
}

// Load rebuilds a trained network from a .spinn file.
func Load(path string) (*FieldNetwork, serialization.Header, error) {
	return nn.Load(path)
}
