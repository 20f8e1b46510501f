// Package autodiff implements scalar automatic differentiation on an
// explicit gradient tape.
//
// Architecture:
//   - Value: one scalar node in the computation graph
//   - Tape: records operations during the forward pass
//   - operation: each op (add, mul, exp, ...) implements its backward pass
//   - Reverse-mode AD: Backward replays the tape to accumulate gradients
//
// Leaves come in two roles. Var creates a trainable leaf that receives a
// gradient; Const creates a gradient-blocked leaf whose numeric value
// participates in the forward pass but contributes zero gradient to
// everything (frozen geometry, kernel constants, sample coordinates).
// The role is fixed at creation and enforced by construction: operations
// whose inputs are all gradient-blocked are never recorded.
//
// Higher-order derivatives are provided by Jet (see jet.go), whose
// coefficients are themselves Values on the tape, so a second spatial
// derivative built from Jets remains differentiable with respect to every
// trainable leaf it touches.
//
// Usage:
//
//	t := autodiff.NewTape()
//	x := t.Var(2.0)
//	y := x.Mul(x) // y = x²
//	t.Backward(y)
//	fmt.Println(x.Grad()) // dy/dx = 2x = 4.0
package autodiff

import "math"

// Value is a scalar node in the computation graph.
//
// Values are created through a Tape (Var, Const) or through operations on
// existing Values. The stored gradient is ∂(backward root)/∂(this value)
// and is only meaningful after Tape.Backward.
type Value struct {
	data         float64
	grad         float64
	requiresGrad bool
	tape         *Tape
}

// Data returns the forward value.
func (v *Value) Data() float64 { return v.data }

// Grad returns the accumulated gradient.
//
// Gradient-blocked leaves and pure-constant intermediates always report 0.
func (v *Value) Grad() float64 { return v.grad }

// RequiresGrad reports whether gradients flow into this value.
func (v *Value) RequiresGrad() bool { return v.requiresGrad }

// operation is one recorded forward step. backward propagates the output
// gradient to the operation's inputs.
type operation interface {
	backward()
}

// Tape records operations for reverse-mode differentiation.
//
// A Tape is built fresh for every loss evaluation; it is not safe for
// concurrent use.
type Tape struct {
	ops []operation
}

// NewTape creates an empty gradient tape.
func NewTape() *Tape {
	return &Tape{}
}

// Var creates a trainable leaf.
func (t *Tape) Var(x float64) *Value {
	return &Value{data: x, requiresGrad: true, tape: t}
}

// Const creates a gradient-blocked leaf.
//
// Its value takes part in every forward computation it reaches, but the
// backward pass never writes a gradient for it or through it alone.
func (t *Tape) Const(x float64) *Value {
	return &Value{data: x, tape: t}
}

// record registers op when the result can carry gradient.
func (t *Tape) record(out *Value, op operation) *Value {
	if out.requiresGrad {
		t.ops = append(t.ops, op)
	}
	return out
}

// Backward seeds root with gradient 1 and replays the tape in reverse,
// accumulating gradients into every reachable trainable leaf.
//
// Gradients accumulate across calls; callers reset leaves between steps.
func (t *Tape) Backward(root *Value) {
	root.grad = 1
	for i := len(t.ops) - 1; i >= 0; i-- {
		t.ops[i].backward()
	}
}

// Len returns the number of recorded operations. Useful in tests.
func (t *Tape) Len() int { return len(t.ops) }

// result builds the output node for an op over the given inputs.
func result(t *Tape, data float64, inputs ...*Value) *Value {
	out := &Value{data: data, tape: t}
	for _, in := range inputs {
		if in.requiresGrad {
			out.requiresGrad = true
			break
		}
	}
	return out
}

type addOp struct{ a, b, out *Value }

func (o *addOp) backward() {
	o.a.grad += o.out.grad
	o.b.grad += o.out.grad
}

// Add returns v + w.
func (v *Value) Add(w *Value) *Value {
	out := result(v.tape, v.data+w.data, v, w)
	return v.tape.record(out, &addOp{v, w, out})
}

type subOp struct{ a, b, out *Value }

func (o *subOp) backward() {
	o.a.grad += o.out.grad
	o.b.grad -= o.out.grad
}

// Sub returns v − w.
func (v *Value) Sub(w *Value) *Value {
	out := result(v.tape, v.data-w.data, v, w)
	return v.tape.record(out, &subOp{v, w, out})
}

type mulOp struct{ a, b, out *Value }

func (o *mulOp) backward() {
	o.a.grad += o.out.grad * o.b.data
	o.b.grad += o.out.grad * o.a.data
}

// Mul returns v · w.
func (v *Value) Mul(w *Value) *Value {
	out := result(v.tape, v.data*w.data, v, w)
	return v.tape.record(out, &mulOp{v, w, out})
}

type divOp struct{ a, b, out *Value }

func (o *divOp) backward() {
	o.a.grad += o.out.grad / o.b.data
	o.b.grad -= o.out.grad * o.a.data / (o.b.data * o.b.data)
}

// Div returns v / w.
func (v *Value) Div(w *Value) *Value {
	out := result(v.tape, v.data/w.data, v, w)
	return v.tape.record(out, &divOp{v, w, out})
}

type negOp struct{ a, out *Value }

func (o *negOp) backward() { o.a.grad -= o.out.grad }

// Neg returns −v.
func (v *Value) Neg() *Value {
	out := result(v.tape, -v.data, v)
	return v.tape.record(out, &negOp{v, out})
}

type scaleOp struct {
	a, out *Value
	k      float64
}

func (o *scaleOp) backward() { o.a.grad += o.out.grad * o.k }

// Scale returns k · v for a plain (non-differentiated) constant k.
func (v *Value) Scale(k float64) *Value {
	out := result(v.tape, v.data*k, v)
	return v.tape.record(out, &scaleOp{v, out, k})
}

type shiftOp struct{ a, out *Value }

func (o *shiftOp) backward() { o.a.grad += o.out.grad }

// Shift returns v + k for a plain constant k.
func (v *Value) Shift(k float64) *Value {
	out := result(v.tape, v.data+k, v)
	return v.tape.record(out, &shiftOp{v, out})
}

type squareOp struct{ a, out *Value }

func (o *squareOp) backward() { o.a.grad += o.out.grad * 2 * o.a.data }

// Square returns v².
func (v *Value) Square() *Value {
	out := result(v.tape, v.data*v.data, v)
	return v.tape.record(out, &squareOp{v, out})
}

type expOp struct{ a, out *Value }

func (o *expOp) backward() { o.a.grad += o.out.grad * o.out.data }

// Exp returns e^v.
func (v *Value) Exp() *Value {
	out := result(v.tape, math.Exp(v.data), v)
	return v.tape.record(out, &expOp{v, out})
}

type logOp struct{ a, out *Value }

func (o *logOp) backward() { o.a.grad += o.out.grad / o.a.data }

// Log returns the natural logarithm of v. Input must be positive.
func (v *Value) Log() *Value {
	out := result(v.tape, math.Log(v.data), v)
	return v.tape.record(out, &logOp{v, out})
}

type sinOp struct{ a, out *Value }

func (o *sinOp) backward() { o.a.grad += o.out.grad * math.Cos(o.a.data) }

// Sin returns sin(v).
func (v *Value) Sin() *Value {
	out := result(v.tape, math.Sin(v.data), v)
	return v.tape.record(out, &sinOp{v, out})
}

type cosOp struct{ a, out *Value }

func (o *cosOp) backward() { o.a.grad -= o.out.grad * math.Sin(o.a.data) }

// Cos returns cos(v).
func (v *Value) Cos() *Value {
	out := result(v.tape, math.Cos(v.data), v)
	return v.tape.record(out, &cosOp{v, out})
}

type sigmoidOp struct{ a, out *Value }

func (o *sigmoidOp) backward() {
	s := o.out.data
	o.a.grad += o.out.grad * s * (1 - s)
}

// Sigmoid returns σ(v) = 1 / (1 + e^−v).
func (v *Value) Sigmoid() *Value {
	out := result(v.tape, sigmoid(v.data), v)
	return v.tape.record(out, &sigmoidOp{v, out})
}

type softplusOp struct{ a, out *Value }

func (o *softplusOp) backward() { o.a.grad += o.out.grad * sigmoid(o.a.data) }

// Softplus returns log(1 + e^v), computed in overflow-safe form.
func (v *Value) Softplus() *Value {
	out := result(v.tape, Softplus(v.data), v)
	return v.tape.record(out, &softplusOp{v, out})
}

// Softplus computes log(1 + e^x) without overflowing for large x.
func Softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
