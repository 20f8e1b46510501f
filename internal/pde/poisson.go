// Package pde defines the Poisson-type problem trained against: the
// differential operator, source term and boundary reference, plus residual
// and boundary-mismatch evaluation over sampled batches.
//
// All derivatives are exact automatic derivatives built by jet lifting —
// never finite differences. The residual depends on second derivatives
// whose finite-difference estimates would be unstable at the resolutions
// used here.
package pde

import (
	"errors"
	"math"

	"github.com/spinn-ml/spinn/internal/autodiff"
	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/sampler"
)

// Errors reported at problem construction.
var (
	ErrNilSource = errors.New("pde: nil source term")
	ErrNilExact  = errors.New("pde: nil exact solution")
)

// DefaultDiffusivity is the diffusivity coefficient used when none is set.
const DefaultDiffusivity = 0.1

// Poisson is the 2D Poisson-type problem
//
//	a·(u_xx + u_yy + f(x, y)) = 0
//
// over a rectangular domain, with the exact solution providing Dirichlet
// values on the bottom, left and right edges and the validation reference
// everywhere.
type Poisson struct {
	Domain      sampler.Domain
	Diffusivity float64
	Source      func(x, y float64) float64
	Exact       func(x, y float64) float64
}

// NewPoisson validates and builds a problem instance. A zero diffusivity
// falls back to DefaultDiffusivity.
func NewPoisson(d sampler.Domain, diffusivity float64, source, exact func(x, y float64) float64) (*Poisson, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if exact == nil {
		return nil, ErrNilExact
	}
	if diffusivity == 0 {
		diffusivity = DefaultDiffusivity
	}
	return &Poisson{
		Domain:      d,
		Diffusivity: diffusivity,
		Source:      source,
		Exact:       exact,
	}, nil
}

// Reference is the benchmark problem: domain [0,1]×[0,1], source
// 20π²·sin(2πx)·sin(4πy), diffusivity 0.1 and analytic solution
// sin(2πx)·sin(4πy).
func Reference() *Poisson {
	d, err := sampler.NewDomain(0, 1, 0, 1)
	if err != nil {
		panic(err) // unit square is always valid
	}
	p, err := NewPoisson(d, 0.1,
		func(x, y float64) float64 {
			return 20 * math.Pi * math.Pi * math.Sin(2*math.Pi*x) * math.Sin(4*math.Pi*y)
		},
		func(x, y float64) float64 {
			return math.Sin(2*math.Pi*x) * math.Sin(4*math.Pi*y)
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Field is any twice-differentiable scalar field expressed over jets.
// nn.FieldFunc satisfies it; tests substitute closed-form fields to check
// the operator independently of training.
type Field interface {
	Eval(x, y autodiff.Jet) autodiff.Jet
}

// Operator builds the differential operator a·(u_xx + u_yy + f(x, y))
// applied to field u, returned as a reusable function over batches rather
// than a single evaluation.
//
// Second derivatives come from two jet passes per point: one with x active
// and one with y active. Each residual is a tape value, so the training
// loss built from them remains differentiable with respect to the field's
// parameters.
func (p *Poisson) Operator(t *autodiff.Tape, u Field) func(b sampler.Batch) []*autodiff.Value {
	return func(b sampler.Batch) []*autodiff.Value {
		out := make([]*autodiff.Value, b.Len())
		for i := range out {
			x, y := b.Xs[i], b.Ys[i]
			uxx := u.Eval(autodiff.Active(t, x), autodiff.Inactive(t, y)).D2
			uyy := u.Eval(autodiff.Inactive(t, x), autodiff.Active(t, y)).D2
			f := t.Const(p.Source(x, y))
			out[i] = uxx.Add(uyy).Add(f).Scale(p.Diffusivity)
		}
		return out
	}
}

// Residuals applies the differential operator to every interior collocation
// point. The training target is residual ≈ 0 everywhere; no external data
// term exists.
func (p *Poisson) Residuals(f *nn.FieldFunc, interior sampler.Batch) []*autodiff.Value {
	return p.Operator(f.Tape(), f)(interior)
}

// BoundaryMismatch compares the field against the exact solution on the
// Dirichlet edges and returns the concatenated mismatch vector in the order
// bottom ++ left ++ right.
//
// The top edge is part of the design surface but is not enforced, matching
// the problem's initial/boundary layout.
func (p *Poisson) BoundaryMismatch(f *nn.FieldFunc, ds sampler.Dataset) []*autodiff.Value {
	t := f.Tape()
	edges := []sampler.Batch{ds.Bottom, ds.Left, ds.Right}
	var out []*autodiff.Value
	for _, edge := range edges {
		for i := 0; i < edge.Len(); i++ {
			x, y := edge.Xs[i], edge.Ys[i]
			want := t.Const(p.Exact(x, y))
			out = append(out, f.Value(x, y).Sub(want))
		}
	}
	return out
}
