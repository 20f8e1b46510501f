package autodiff

// Jet carries a value together with its first and second derivatives with
// respect to one designated "active" scalar input (truncated second-order
// forward-mode differentiation).
//
// All three coefficients are Values on the same tape, so any quantity built
// from Jets — including a second spatial derivative — stays differentiable
// with respect to the trainable leaves that produced it. Combining a
// forward-mode Jet pass with a reverse-mode Tape.Backward yields the nested
// derivative-of-derivative pipeline needed for PDE residuals, with every
// derivative exact.
//
// To compute ∂²f/∂x² at (x, y): evaluate f with Active(x) and Inactive(y)
// and read D2 off the result.
type Jet struct {
	F  *Value // function value
	D1 *Value // first derivative w.r.t. the active input
	D2 *Value // second derivative w.r.t. the active input
}

// Active creates the jet of the active coordinate itself: value x,
// derivative 1, second derivative 0.
func Active(t *Tape, x float64) Jet {
	return Jet{F: t.Const(x), D1: t.Const(1), D2: t.Const(0)}
}

// Inactive creates the jet of a coordinate held fixed during this pass.
func Inactive(t *Tape, x float64) Jet {
	zero := t.Const(0)
	return Jet{F: t.Const(x), D1: zero, D2: zero}
}

// Lift embeds an existing Value (typically a trainable parameter) as a jet
// that is constant in the active coordinate.
func Lift(v *Value) Jet {
	zero := v.tape.Const(0)
	return Jet{F: v, D1: zero, D2: zero}
}

// Add returns a + b.
func (a Jet) Add(b Jet) Jet {
	return Jet{F: a.F.Add(b.F), D1: a.D1.Add(b.D1), D2: a.D2.Add(b.D2)}
}

// Sub returns a − b.
func (a Jet) Sub(b Jet) Jet {
	return Jet{F: a.F.Sub(b.F), D1: a.D1.Sub(b.D1), D2: a.D2.Sub(b.D2)}
}

// Mul returns a · b using the product rule:
//
//	(ab)'  = a'b + ab'
//	(ab)'' = a''b + 2a'b' + ab''
func (a Jet) Mul(b Jet) Jet {
	return Jet{
		F:  a.F.Mul(b.F),
		D1: a.D1.Mul(b.F).Add(a.F.Mul(b.D1)),
		D2: a.D2.Mul(b.F).Add(a.D1.Mul(b.D1).Scale(2)).Add(a.F.Mul(b.D2)),
	}
}

// Div returns a / b via
//
//	w   = a/b
//	w'  = (a' − w·b') / b
//	w'' = (a'' − 2w'·b' − w·b'') / b
func (a Jet) Div(b Jet) Jet {
	f := a.F.Div(b.F)
	d1 := a.D1.Sub(f.Mul(b.D1)).Div(b.F)
	d2 := a.D2.Sub(d1.Mul(b.D1).Scale(2)).Sub(f.Mul(b.D2)).Div(b.F)
	return Jet{F: f, D1: d1, D2: d2}
}

// Neg returns −a.
func (a Jet) Neg() Jet {
	return Jet{F: a.F.Neg(), D1: a.D1.Neg(), D2: a.D2.Neg()}
}

// Scale returns k · a for a plain constant k.
func (a Jet) Scale(k float64) Jet {
	return Jet{F: a.F.Scale(k), D1: a.D1.Scale(k), D2: a.D2.Scale(k)}
}

// Shift returns a + k for a plain constant k.
func (a Jet) Shift(k float64) Jet {
	return Jet{F: a.F.Shift(k), D1: a.D1, D2: a.D2}
}

// Square returns a².
func (a Jet) Square() Jet {
	return Jet{
		F:  a.F.Square(),
		D1: a.F.Mul(a.D1).Scale(2),
		D2: a.D1.Square().Add(a.F.Mul(a.D2)).Scale(2),
	}
}

// Exp returns e^a:
//
//	w'  = w·a'
//	w'' = w·(a'² + a'')
func (a Jet) Exp() Jet {
	e := a.F.Exp()
	return Jet{
		F:  e,
		D1: e.Mul(a.D1),
		D2: e.Mul(a.D1.Square().Add(a.D2)),
	}
}

// Sin returns sin(a):
//
//	w'  = cos(a)·a'
//	w'' = cos(a)·a'' − sin(a)·a'²
func (a Jet) Sin() Jet {
	s := a.F.Sin()
	c := a.F.Cos()
	return Jet{
		F:  s,
		D1: c.Mul(a.D1),
		D2: c.Mul(a.D2).Sub(s.Mul(a.D1.Square())),
	}
}

// Cos returns cos(a).
func (a Jet) Cos() Jet {
	s := a.F.Sin()
	c := a.F.Cos()
	return Jet{
		F:  c,
		D1: s.Mul(a.D1).Neg(),
		D2: s.Mul(a.D2).Add(c.Mul(a.D1.Square())).Neg(),
	}
}

// Softplus returns log(1 + e^a):
//
//	w'  = σ(a)·a'
//	w'' = σ(a)(1 − σ(a))·a'² + σ(a)·a''
func (a Jet) Softplus() Jet {
	s := a.F.Sigmoid()
	one := a.F.tape.Const(1)
	return Jet{
		F:  a.F.Softplus(),
		D1: s.Mul(a.D1),
		D2: s.Mul(one.Sub(s)).Mul(a.D1.Square()).Add(s.Mul(a.D2)),
	}
}
