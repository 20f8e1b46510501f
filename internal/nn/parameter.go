package nn

// Parameter represents a trainable parameter vector in a field network.
//
// Parameters are named float64 vectors that receive gradient during the
// backward pass. They are the only state mutated by optimizers.
//
// Example:
//
//	weight := nn.NewParameter("readout.weight", values)
//	w := weight.Data()
//	g := weight.Grad()
type Parameter struct {
	name string
	data []float64
	grad []float64
}

// NewParameter creates a new trainable parameter owning data.
func NewParameter(name string, data []float64) *Parameter {
	return &Parameter{
		name: name,
		data: data,
		grad: make([]float64, len(data)),
	}
}

// Name returns the parameter name (e.g. "centers.free.x").
func (p *Parameter) Name() string { return p.name }

// Data returns the parameter vector. Mutating it mutates the parameter.
func (p *Parameter) Data() []float64 { return p.data }

// Grad returns the gradient vector, accumulated by the backward pass.
func (p *Parameter) Grad() []float64 { return p.grad }

// Len returns the number of scalars in the parameter.
func (p *Parameter) Len() int { return len(p.data) }

// ZeroGrad clears the gradient vector.
//
// Call before each training iteration to avoid accumulating gradients from
// previous iterations.
func (p *Parameter) ZeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
}

// Frozen represents a gradient-blocked, read-only parameter vector.
//
// Frozen vectors hold geometry that participates in the forward computation
// but must never be updated: fixed-center positions and bandwidths. They are
// excluded from Parameters() by type, not by convention, so no optimizer can
// ever traverse them.
type Frozen struct {
	name string
	data []float64
}

// NewFrozen creates a gradient-blocked vector owning data.
func NewFrozen(name string, data []float64) *Frozen {
	return &Frozen{name: name, data: data}
}

// Name returns the frozen vector's name.
func (f *Frozen) Name() string { return f.name }

// Data returns the underlying values. Callers must not mutate them.
func (f *Frozen) Data() []float64 { return f.data }

// Len returns the number of scalars.
func (f *Frozen) Len() int { return len(f.data) }
