package nn

import (
	"fmt"
	"math"

	"github.com/spinn-ml/spinn/internal/autodiff"
)

// Kernel is an elementwise localized bump κ(u, v) ≥ 0 applied to each
// center's normalized offset pair.
//
// Any implementation must be non-negative, peak at the center (u = v = 0)
// and be twice differentiable: the PDE residual differentiates the field
// twice, so Eval is expressed over jets. At is the plain-float forward path
// used for validation grids.
type Kernel interface {
	// Eval computes κ over second-order jets.
	Eval(u, v autodiff.Jet) autodiff.Jet

	// At computes κ at plain coordinates.
	At(u, v float64) float64

	// Name identifies the kernel in checkpoints.
	Name() string
}

// GaussianKernel is the Gaussian bump κ(u, v) = exp(−0.5(u² + v²)).
//
// Smooth and strictly positive everywhere: infinite support, so the
// partition-of-unity sum never vanishes.
type GaussianKernel struct{}

// Eval computes κ over jets.
func (GaussianKernel) Eval(u, v autodiff.Jet) autodiff.Jet {
	return u.Square().Add(v.Square()).Scale(-0.5).Exp()
}

// At computes κ at plain coordinates.
func (GaussianKernel) At(u, v float64) float64 {
	return math.Exp(-0.5 * (u*u + v*v))
}

// Name returns "gaussian".
func (GaussianKernel) Name() string { return "gaussian" }

// bumpPeak is chosen so the compact kernel's pre-division peak at
// u = v = 0 equals softplus(bumpPeak − 4·softplus(0)) = softplus(1).
const bumpPeak = 1 + 4*math.Ln2

// BumpKernel is a smooth compact-support-style bump built from softplus:
//
//	κ(u, v) = softplus(K − sp(2u) − sp(−2u) − sp(2v) − sp(−2v)) / softplus(1)
//
// with K = 1 + 4·ln 2, so κ(0, 0) = 1 and κ decays smoothly to ≈0 outside a
// bounded neighborhood of the center. K and the softplus(1) divisor are
// plain scalars, never parameters, so they are gradient-blocked by
// construction.
type BumpKernel struct{}

// Eval computes κ over jets.
func (BumpKernel) Eval(u, v autodiff.Jet) autodiff.Jet {
	inner := u.Scale(2).Softplus().
		Add(u.Scale(-2).Softplus()).
		Add(v.Scale(2).Softplus()).
		Add(v.Scale(-2).Softplus()).
		Neg().
		Shift(bumpPeak)
	return inner.Softplus().Scale(1 / autodiff.Softplus(1))
}

// At computes κ at plain coordinates.
func (BumpKernel) At(u, v float64) float64 {
	sp := autodiff.Softplus
	inner := bumpPeak - sp(2*u) - sp(-2*u) - sp(2*v) - sp(-2*v)
	return sp(inner) / sp(1)
}

// Name returns "bump".
func (BumpKernel) Name() string { return "bump" }

// KernelByName resolves a kernel from its checkpoint name.
func KernelByName(name string) (Kernel, error) {
	switch name {
	case "gaussian":
		return GaussianKernel{}, nil
	case "bump":
		return BumpKernel{}, nil
	default:
		return nil, fmt.Errorf("nn: unknown kernel %q", name)
	}
}
