// Copyright 2025 SPINN ML Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides scalar automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation on an
// explicit gradient tape, plus second-order forward-mode jets whose
// coefficients live on the same tape. Composing the two gives exact nested
// derivatives: a second spatial derivative built from jets remains
// differentiable with respect to every trainable leaf.
//
// Example:
//
//	t := autodiff.NewTape()
//	x := t.Var(2.0)
//	y := x.Mul(x) // y = x²
//	t.Backward(y)
//	_ = x.Grad()  // dy/dx = 4.0
package autodiff

import (
	"github.com/spinn-ml/spinn/internal/autodiff"
)

// Tape records operations for automatic differentiation.
type Tape = autodiff.Tape

// NewTape creates a new gradient tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// Value is a scalar node in the computation graph.
type Value = autodiff.Value

// Jet carries a value with its first and second derivatives with respect to
// one active scalar input.
type Jet = autodiff.Jet

// Active creates the jet of the active coordinate itself.
func Active(t *Tape, x float64) Jet {
	return autodiff.Active(t, x)
}

// Inactive creates the jet of a coordinate held fixed during this pass.
func Inactive(t *Tape, x float64) Jet {
	return autodiff.Inactive(t, x)
}

// Lift embeds an existing Value as a jet constant in the active coordinate.
func Lift(v *Value) Jet {
	return autodiff.Lift(v)
}

// Softplus computes log(1 + e^x) in overflow-safe form.
func Softplus(x float64) float64 {
	return autodiff.Softplus(x)
}
