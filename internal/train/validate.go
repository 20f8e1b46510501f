package train

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/parallel"
	"github.com/spinn-ml/spinn/internal/pde"
	"github.com/spinn-ml/spinn/internal/sampler"
)

// FieldGrid evaluates the network on an n×n grid spanning the domain,
// endpoints included. Row i is the i-th y level, column j the j-th x level.
func FieldGrid(net *nn.FieldNetwork, d sampler.Domain, n int) *mat.Dense {
	return grid(d, n, net.At)
}

// ExactGrid evaluates the analytic solution on the same n×n layout.
func ExactGrid(p *pde.Poisson, n int) *mat.Dense {
	return grid(p.Domain, n, p.Exact)
}

// grid fans the pointwise evaluations out over workers. f must be pure;
// both the network fast path and the analytic solution are.
func grid(d sampler.Domain, n int, f func(x, y float64) float64) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	parallel.ForGrid(n, n, func(i, j int) {
		y := d.Y0 + d.Height()*float64(i)/float64(n-1)
		x := d.X0 + d.Width()*float64(j)/float64(n-1)
		out.Set(i, j, f(x, y))
	}, parallel.DefaultConfig())
	return out
}

// InfNorm returns the maximum absolute pointwise difference between two
// equally sized matrices.
func InfNorm(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	max := 0.0
	r, c := diff.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := math.Abs(diff.At(i, j)); v > max {
				max = v
			}
		}
	}
	return max
}

// Validate computes the infinity-norm error of the current network against
// the analytic solution on the configured dense grid.
func (tr *Trainer) Validate() float64 {
	n := tr.cfg.GridSize
	return InfNorm(FieldGrid(tr.net, tr.prob.Domain, n), ExactGrid(tr.prob, n))
}
