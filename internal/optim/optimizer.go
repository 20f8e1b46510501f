// Package optim implements gradient-based parameter updaters for field
// networks.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with momentum
//   - Adam: adaptive moment estimation
//
// Optimizers traverse only the trainable parameter set; gradient-blocked
// state (fixed centers, kernel constants) is a different type and never
// reaches them.
//
// Example usage:
//
//	optimizer := optim.NewAdam(net.Parameters(), optim.AdamConfig{LR: 0.01})
//
//	for step := 0; step < steps; step++ {
//	    net.ZeroGrad()
//	    field := net.Bind(autodiff.NewTape())
//	    loss := computeLoss(field, batch)
//	    field.Backward(loss)
//	    optimizer.Step()
//	}
package optim

import "github.com/spinn-ml/spinn/internal/nn"

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: apply the update rule using the gradients currently stored on
//     the parameters
//   - ZeroGrad: clear parameter gradients before the next iteration
//   - GetLR: current learning rate (for monitoring/scheduling)
type Optimizer interface {
	Step()
	ZeroGrad()
	GetLR() float64
}

// Config is the base configuration shared by optimizers.
type Config struct {
	LR float64 // Learning rate
}

func zeroGrad(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
