package nn

import "github.com/spinn-ml/spinn/internal/autodiff"

// MeanSquare computes mean(vᵢ²) over a batch of tape values.
//
// Used for both loss terms: residuals are squared against an implicit zero
// target, boundary mismatches are already differences.
//
// Panics on an empty batch; callers control batch sizes.
func MeanSquare(vals []*autodiff.Value) *autodiff.Value {
	if len(vals) == 0 {
		panic("nn: MeanSquare over empty batch")
	}
	sum := vals[0].Square()
	for _, v := range vals[1:] {
		sum = sum.Add(v.Square())
	}
	return sum.Scale(1 / float64(len(vals)))
}
