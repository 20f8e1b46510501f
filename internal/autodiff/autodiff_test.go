package autodiff

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

// Helper to check float equality with tolerance.
func closeTo(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestBackwardSquare(t *testing.T) {
	tape := NewTape()
	x := tape.Var(2.0)
	y := x.Mul(x)

	tape.Backward(y)

	if y.Data() != 4.0 {
		t.Errorf("forward: got %v, want 4.0", y.Data())
	}
	if x.Grad() != 4.0 {
		t.Errorf("dy/dx: got %v, want 4.0", x.Grad())
	}
}

func TestBackwardChain(t *testing.T) {
	// y = (3x + 1)², dy/dx = 6(3x + 1) = 24 at x = 1.
	tape := NewTape()
	x := tape.Var(1.0)
	y := x.Scale(3).Shift(1).Square()

	tape.Backward(y)

	if !closeTo(y.Data(), 16, 1e-12) {
		t.Errorf("forward: got %v, want 16", y.Data())
	}
	if !closeTo(x.Grad(), 24, 1e-12) {
		t.Errorf("dy/dx: got %v, want 24", x.Grad())
	}
}

func TestConstBlocksGradient(t *testing.T) {
	tape := NewTape()
	x := tape.Var(3.0)
	c := tape.Const(5.0)
	y := c.Mul(x)

	tape.Backward(y)

	if x.Grad() != 5.0 {
		t.Errorf("dy/dx: got %v, want 5.0", x.Grad())
	}
	if c.Grad() != 0 {
		t.Errorf("const leaf received gradient %v, want 0", c.Grad())
	}
}

func TestConstOnlyGraphRecordsNothing(t *testing.T) {
	tape := NewTape()
	a := tape.Const(2.0)
	b := tape.Const(3.0)
	_ = a.Mul(b).Exp()

	if tape.Len() != 0 {
		t.Errorf("tape recorded %d ops for a gradient-free graph, want 0", tape.Len())
	}
}

func TestUnaryGradients(t *testing.T) {
	x0 := 0.7
	tests := []struct {
		name string
		f    func(v *Value) *Value
		want float64 // df/dx at x0
	}{
		{"Exp", (*Value).Exp, math.Exp(x0)},
		{"Log", (*Value).Log, 1 / x0},
		{"Sin", (*Value).Sin, math.Cos(x0)},
		{"Cos", (*Value).Cos, -math.Sin(x0)},
		{"Neg", (*Value).Neg, -1},
		{"Square", (*Value).Square, 2 * x0},
		{"Softplus", (*Value).Softplus, 1 / (1 + math.Exp(-x0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := NewTape()
			x := tape.Var(x0)
			y := tt.f(x)
			tape.Backward(y)
			if !closeTo(x.Grad(), tt.want, 1e-12) {
				t.Errorf("d%s/dx at %v: got %v, want %v", tt.name, x0, x.Grad(), tt.want)
			}
		})
	}
}

func TestDivGradients(t *testing.T) {
	tape := NewTape()
	a := tape.Var(6.0)
	b := tape.Var(2.0)
	y := a.Div(b)

	tape.Backward(y)

	if !closeTo(a.Grad(), 0.5, 1e-12) {
		t.Errorf("dy/da: got %v, want 0.5", a.Grad())
	}
	if !closeTo(b.Grad(), -1.5, 1e-12) {
		t.Errorf("dy/db: got %v, want -1.5", b.Grad())
	}
}

func TestJetCube(t *testing.T) {
	// f(x) = x³: f'' = 6x = 12 at x = 2.
	tape := NewTape()
	x := Active(tape, 2.0)
	y := x.Mul(x).Mul(x)

	if !closeTo(y.F.Data(), 8, 1e-12) {
		t.Errorf("f: got %v, want 8", y.F.Data())
	}
	if !closeTo(y.D1.Data(), 12, 1e-12) {
		t.Errorf("f': got %v, want 12", y.D1.Data())
	}
	if !closeTo(y.D2.Data(), 12, 1e-12) {
		t.Errorf("f'': got %v, want 12", y.D2.Data())
	}
}

func TestJetExpSin(t *testing.T) {
	// f(x) = exp(sin x): f'' = (cos²x − sin x)·exp(sin x).
	x0 := 0.5
	tape := NewTape()
	y := Active(tape, x0).Sin().Exp()

	e := math.Exp(math.Sin(x0))
	wantD1 := math.Cos(x0) * e
	wantD2 := (math.Cos(x0)*math.Cos(x0) - math.Sin(x0)) * e
	if !closeTo(y.F.Data(), e, 1e-12) {
		t.Errorf("f: got %v, want %v", y.F.Data(), e)
	}
	if !closeTo(y.D1.Data(), wantD1, 1e-12) {
		t.Errorf("f': got %v, want %v", y.D1.Data(), wantD1)
	}
	if !closeTo(y.D2.Data(), wantD2, 1e-12) {
		t.Errorf("f'': got %v, want %v", y.D2.Data(), wantD2)
	}
}

func TestJetDiv(t *testing.T) {
	// f(x) = 1/(1 + x²): f'' = (6x² − 2)/(1 + x²)³.
	x0 := 1.5
	tape := NewTape()
	x := Active(tape, x0)
	one := Inactive(tape, 1.0)
	y := one.Div(one.Add(x.Square()))

	d := 1 + x0*x0
	wantD1 := -2 * x0 / (d * d)
	wantD2 := (6*x0*x0 - 2) / (d * d * d)
	if !closeTo(y.D1.Data(), wantD1, 1e-12) {
		t.Errorf("f': got %v, want %v", y.D1.Data(), wantD1)
	}
	if !closeTo(y.D2.Data(), wantD2, 1e-12) {
		t.Errorf("f'': got %v, want %v", y.D2.Data(), wantD2)
	}
}

func TestJetSoftplusAgainstFiniteDifferences(t *testing.T) {
	f := func(x float64) float64 { return Softplus(3*x - 1) }
	x0 := 0.4

	tape := NewTape()
	y := Active(tape, x0).Scale(3).Shift(-1).Softplus()

	d1 := fd.Derivative(f, x0, &fd.Settings{Formula: fd.Central})
	if !closeTo(y.D1.Data(), d1, 1e-6) {
		t.Errorf("f': got %v, finite differences give %v", y.D1.Data(), d1)
	}
	d2 := fd.Derivative(func(x float64) float64 {
		tp := NewTape()
		return Active(tp, x).Scale(3).Shift(-1).Softplus().D1.Data()
	}, x0, &fd.Settings{Formula: fd.Central})
	if !closeTo(y.D2.Data(), d2, 1e-6) {
		t.Errorf("f'': got %v, finite differences give %v", y.D2.Data(), d2)
	}
}

// TestNestedDerivative differentiates a second spatial derivative with
// respect to a trainable leaf: the forward-over-reverse pipeline the PDE
// residual relies on.
func TestNestedDerivative(t *testing.T) {
	const h = 0.8
	x0, c0 := 0.3, 0.1

	// u(x; c) = exp(−0.5((x−c)/h)²), evaluated as u_xx with c trainable.
	uxx := func(tp *Tape, c *Value) *Value {
		x := Active(tp, x0)
		z := x.Sub(Lift(c)).Scale(1 / h)
		return z.Square().Scale(-0.5).Exp().D2
	}

	tape := NewTape()
	c := tape.Var(c0)
	out := uxx(tape, c)
	tape.Backward(out)

	// Cross-check ∂(u_xx)/∂c with central finite differences over c.
	want := fd.Derivative(func(cv float64) float64 {
		tp := NewTape()
		return uxx(tp, tp.Var(cv)).Data()
	}, c0, &fd.Settings{Formula: fd.Central})

	if !closeTo(c.Grad(), want, 1e-6) {
		t.Errorf("∂u_xx/∂c: got %v, finite differences give %v", c.Grad(), want)
	}
}

func TestGradientsAccumulateAcrossBatch(t *testing.T) {
	// One leaf feeding two evaluations accumulates both contributions.
	tape := NewTape()
	w := tape.Var(2.0)
	y := w.Scale(3).Add(w.Scale(4))

	tape.Backward(y)

	if !closeTo(w.Grad(), 7, 1e-12) {
		t.Errorf("accumulated grad: got %v, want 7", w.Grad())
	}
}
