package nn

import (
	"fmt"
	"math"

	"github.com/spinn-ml/spinn/internal/autodiff"
	"github.com/spinn-ml/spinn/internal/sampler"
)

// FieldNetwork composes a BasisLayer, an activation kernel and an unbiased
// linear readout with partition-of-unity normalization into a scalar field
// u(x, y).
//
// Per query point: the basis layer produces per-center normalized offsets,
// the kernel evaluates a per-center activation, the activation vector is
// divided by its own sum so the activations act as local weights summing to
// one, and the readout combines them as Σ w_c · (κ_c / Σκ). There is no
// bias term.
//
// Evaluation is a pure function of the point and the parameters: the same
// network can be applied to many points with no shared mutable state, so
// batches evaluate independently.
type FieldNetwork struct {
	basis  *BasisLayer
	kernel Kernel
	weight *Parameter
}

// NewFieldNetwork builds a network over the given node sets.
//
// Readout weights are initialized from r with Xavier-style scale
// sqrt(2/(centers+1)); positions and bandwidths come from the basis layer's
// shared-bandwidth rule. Construction fails fast on degenerate geometry.
func NewFieldNetwork(free, fixed []Point, kernel Kernel, r *sampler.Rand) (*FieldNetwork, error) {
	basis, err := NewBasisLayer(free, fixed)
	if err != nil {
		return nil, err
	}
	n := basis.NumCenters()
	w := make([]float64, n)
	scale := math.Sqrt(2 / float64(n+1))
	for i := range w {
		w[i] = r.Uniform(-scale, scale)
	}
	return &FieldNetwork{
		basis:  basis,
		kernel: kernel,
		weight: NewParameter("readout.weight", w),
	}, nil
}

// Kernel returns the network's activation kernel.
func (n *FieldNetwork) Kernel() Kernel { return n.kernel }

// Basis returns the network's basis layer.
func (n *FieldNetwork) Basis() *BasisLayer { return n.basis }

// NumCenters returns the total center count.
func (n *FieldNetwork) NumCenters() int { return n.basis.NumCenters() }

// Parameters returns the trainable parameters: free-center positions and
// bandwidths plus all readout weights. Fixed centers never appear here.
func (n *FieldNetwork) Parameters() []*Parameter {
	return append(n.basis.Parameters(), n.weight)
}

// ZeroGrad clears the gradients of all trainable parameters.
func (n *FieldNetwork) ZeroGrad() {
	for _, p := range n.Parameters() {
		p.ZeroGrad()
	}
}

// At evaluates the field at a plain point, outside any gradient tape.
//
// This is the fast path for validation grids. Query points where the
// activation sum is exactly zero (possible far outside every kernel's
// effective support, in particular for the compact kernel) evaluate to 0
// rather than propagating the undefined 0/0.
func (n *FieldNetwork) At(x, y float64) float64 {
	w := n.weight.data
	var num, sum float64
	for i, off := range n.basis.Offsets(x, y) {
		k := n.kernel.At(off[0], off[1])
		num += w[i] * k
		sum += k
	}
	if sum == 0 {
		return 0
	}
	return num / sum
}

// FieldFunc is a FieldNetwork bound to a gradient tape: the closed-form
// field function the differential operator is applied to.
//
// Binding creates one tape leaf per parameter scalar (trainable leaves for
// free centers and weights, gradient-blocked leaves for fixed centers), so
// every evaluation in a batch shares the same leaves and Backward
// accumulates over the whole batch.
type FieldFunc struct {
	tape   *autodiff.Tape
	net    *FieldNetwork
	cx, cy []*autodiff.Value // concatenated free ++ fixed
	h      []*autodiff.Value
	w      []*autodiff.Value

	bound []binding
}

type binding struct {
	param  *Parameter
	leaves []*autodiff.Value
}

// Bind creates the network's field function on tape t.
func (n *FieldNetwork) Bind(t *autodiff.Tape) *FieldFunc {
	f := &FieldFunc{tape: t, net: n}

	vars := func(p *Parameter) []*autodiff.Value {
		leaves := make([]*autodiff.Value, p.Len())
		for i, x := range p.data {
			leaves[i] = t.Var(x)
		}
		f.bound = append(f.bound, binding{param: p, leaves: leaves})
		return leaves
	}
	consts := func(fr *Frozen) []*autodiff.Value {
		leaves := make([]*autodiff.Value, fr.Len())
		for i, x := range fr.data {
			leaves[i] = t.Const(x)
		}
		return leaves
	}

	b := n.basis
	f.cx = append(vars(b.freeX), consts(b.fixedX)...)
	f.cy = append(vars(b.freeY), consts(b.fixedY)...)
	f.h = append(vars(b.freeH), consts(b.fixedH)...)
	f.w = vars(n.weight)
	return f
}

// Tape returns the tape the function is bound to.
func (f *FieldFunc) Tape() *autodiff.Tape { return f.tape }

// Eval computes the field as a jet of the active coordinate.
//
// The zero-activation-sum fallback matches At: the result is the constant
// 0 jet.
func (f *FieldFunc) Eval(x, y autodiff.Jet) autodiff.Jet {
	n := len(f.cx)
	ks := make([]autodiff.Jet, n)
	var sum autodiff.Jet
	for i := 0; i < n; i++ {
		u := x.Sub(autodiff.Lift(f.cx[i])).Div(autodiff.Lift(f.h[i]))
		v := y.Sub(autodiff.Lift(f.cy[i])).Div(autodiff.Lift(f.h[i]))
		ks[i] = f.net.kernel.Eval(u, v)
		if i == 0 {
			sum = ks[i]
		} else {
			sum = sum.Add(ks[i])
		}
	}
	if sum.F.Data() == 0 {
		return autodiff.Inactive(f.tape, 0)
	}

	// Partition of unity first, then the unbiased linear readout.
	out := autodiff.Lift(f.w[0]).Mul(ks[0].Div(sum))
	for i := 1; i < n; i++ {
		out = out.Add(autodiff.Lift(f.w[i]).Mul(ks[i].Div(sum)))
	}
	return out
}

// Value evaluates the field at a plain point on the tape, with no active
// coordinate.
func (f *FieldFunc) Value(x, y float64) *autodiff.Value {
	return f.Eval(autodiff.Inactive(f.tape, x), autodiff.Inactive(f.tape, y)).F
}

// Backward runs reverse-mode differentiation from loss and accumulates the
// resulting leaf gradients into the bound parameters' Grad vectors.
func (f *FieldFunc) Backward(loss *autodiff.Value) {
	f.tape.Backward(loss)
	for _, b := range f.bound {
		for i, leaf := range b.leaves {
			b.param.grad[i] += leaf.Grad()
		}
	}
}

// fieldFromState rebuilds a network from a checkpoint state dict.
func fieldFromState(state map[string][]float64, kernel Kernel) (*FieldNetwork, error) {
	want := []string{
		"centers.free.x", "centers.free.y", "centers.free.h",
		"centers.fixed.x", "centers.fixed.y", "centers.fixed.h",
		"readout.weight",
	}
	for _, name := range want {
		if _, ok := state[name]; !ok {
			return nil, fmt.Errorf("nn: state dict missing %q", name)
		}
	}
	nf := len(state["centers.free.x"])
	nx := len(state["centers.fixed.x"])
	if nf == 0 {
		return nil, fmt.Errorf("%w: no free centers in state dict", ErrDegenerateGeometry)
	}
	lengths := map[string]int{
		"centers.free.x":  nf,
		"centers.free.y":  nf,
		"centers.free.h":  nf,
		"centers.fixed.x": nx,
		"centers.fixed.y": nx,
		"centers.fixed.h": nx,
	}
	for name, n := range lengths {
		if len(state[name]) != n {
			return nil, fmt.Errorf("nn: state dict field %q has length %d, want %d",
				name, len(state[name]), n)
		}
	}
	if len(state["readout.weight"]) != nf+nx {
		return nil, fmt.Errorf("nn: readout weight length %d, want %d",
			len(state["readout.weight"]), nf+nx)
	}
	for _, name := range []string{"centers.free.h", "centers.fixed.h"} {
		for i, h := range state[name] {
			if h <= 0 {
				return nil, fmt.Errorf("%w: %s[%d] = %g", ErrDegenerateGeometry, name, i, h)
			}
		}
	}
	// Copy out of the state dict so the network never aliases the caller's
	// slices, mirroring StateDict.
	cp := func(xs []float64) []float64 {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	basis := &BasisLayer{
		freeX:  NewParameter("centers.free.x", cp(state["centers.free.x"])),
		freeY:  NewParameter("centers.free.y", cp(state["centers.free.y"])),
		freeH:  NewParameter("centers.free.h", cp(state["centers.free.h"])),
		fixedX: NewFrozen("centers.fixed.x", cp(state["centers.fixed.x"])),
		fixedY: NewFrozen("centers.fixed.y", cp(state["centers.fixed.y"])),
		fixedH: NewFrozen("centers.fixed.h", cp(state["centers.fixed.h"])),
	}
	return &FieldNetwork{
		basis:  basis,
		kernel: kernel,
		weight: NewParameter("readout.weight", cp(state["readout.weight"])),
	}, nil
}

// StateDict returns the full parameter set as a flat mapping from parameter
// name to values. Frozen geometry is included: it is state, just not
// trainable.
func (n *FieldNetwork) StateDict() map[string][]float64 {
	cp := func(xs []float64) []float64 {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	b := n.basis
	return map[string][]float64{
		b.freeX.Name():  cp(b.freeX.data),
		b.freeY.Name():  cp(b.freeY.data),
		b.freeH.Name():  cp(b.freeH.data),
		b.fixedX.Name(): cp(b.fixedX.data),
		b.fixedY.Name(): cp(b.fixedY.data),
		b.fixedH.Name(): cp(b.fixedH.data),
		n.weight.Name(): cp(n.weight.data),
	}
}

// LoadStateDict replaces the network's state from a state dict produced by
// StateDict. Shapes must match the network exactly.
//
// Values are copied into the existing parameter storage, so parameter
// identity survives a restore: an optimizer already paired with
// Parameters() keeps updating the live state.
func (n *FieldNetwork) LoadStateDict(state map[string][]float64) error {
	loaded, err := fieldFromState(state, n.kernel)
	if err != nil {
		return err
	}
	if loaded.NumCenters() != n.NumCenters() || loaded.basis.NumFree() != n.basis.NumFree() {
		return fmt.Errorf("nn: state dict geometry %d+%d does not match network %d+%d",
			loaded.basis.NumFree(), loaded.NumCenters()-loaded.basis.NumFree(),
			n.basis.NumFree(), n.NumCenters()-n.basis.NumFree())
	}
	b, lb := n.basis, loaded.basis
	copy(b.freeX.data, lb.freeX.data)
	copy(b.freeY.data, lb.freeY.data)
	copy(b.freeH.data, lb.freeH.data)
	copy(b.fixedX.data, lb.fixedX.data)
	copy(b.fixedY.data, lb.fixedY.data)
	copy(b.fixedH.data, lb.fixedH.data)
	copy(n.weight.data, loaded.weight.data)
	return nil
}
