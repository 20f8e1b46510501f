// Package train orchestrates field-network training: sampling, loss
// evaluation, gradient computation, parameter updates and periodic
// validation against the analytic reference.
package train

import (
	"errors"
	"fmt"
	"math"

	"github.com/spinn-ml/spinn/internal/autodiff"
	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/optim"
	"github.com/spinn-ml/spinn/internal/pde"
	"github.com/spinn-ml/spinn/internal/sampler"
)

// ErrNonFiniteLoss reports a NaN or Inf loss or gradient. It is fatal:
// training halts at the offending step with no retry.
var ErrNonFiniteLoss = errors.New("train: non-finite loss or gradient")

// ErrInvalidConfig reports a Config rejected at construction.
var ErrInvalidConfig = errors.New("train: invalid config")

// Config holds all training hyperparameters. Zero values take the
// documented defaults.
type Config struct {
	Steps          int     // optimization steps (default: 1000)
	ValidateEvery  int     // validation interval in steps (default: 100)
	InteriorPoints int     // collocation points per step (default: 50)
	BoundaryPoints int     // points per boundary edge per step (default: 10)
	ResidualWeight float64 // weight of the residual MSE term (default: 1)
	BoundaryWeight float64 // weight of the boundary MSE term (default: 0, term inert)
	GridSize       int     // validation grid is GridSize×GridSize (default: 100)
	Seed           uint64  // root seed for the sampling streams
}

func (c Config) withDefaults() Config {
	if c.Steps == 0 {
		c.Steps = 1000
	}
	if c.ValidateEvery == 0 {
		c.ValidateEvery = 100
	}
	if c.InteriorPoints == 0 {
		c.InteriorPoints = 50
	}
	if c.BoundaryPoints == 0 {
		c.BoundaryPoints = 10
	}
	if c.ResidualWeight == 0 {
		c.ResidualWeight = 1
	}
	if c.GridSize == 0 {
		c.GridSize = 100
	}
	return c
}

// validate rejects values the loop cannot run with. Called after defaulting,
// so only explicitly bad settings reach it.
func (c Config) validate() error {
	for _, f := range []struct {
		name string
		n    int
	}{
		{"steps", c.Steps},
		{"validate interval", c.ValidateEvery},
		{"interior points", c.InteriorPoints},
		{"boundary points", c.BoundaryPoints},
	} {
		if f.n < 1 {
			return fmt.Errorf("%w: %s %d, need at least 1", ErrInvalidConfig, f.name, f.n)
		}
	}
	// The validation grid spans each axis with n-1 intervals.
	if c.GridSize < 2 {
		return fmt.Errorf("%w: grid size %d, need at least 2", ErrInvalidConfig, c.GridSize)
	}
	return nil
}

// Checkpoint is one periodic validation record: the training loss at the
// step and the infinity-norm error against the analytic solution on the
// validation grid.
type Checkpoint struct {
	Step      int
	Loss      float64
	LinfError float64
}

// Recorder receives checkpoints as training progresses. A recorder error
// halts training.
type Recorder interface {
	Record(c Checkpoint) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(c Checkpoint) error

// Record calls f(c).
func (f RecorderFunc) Record(c Checkpoint) error { return f(c) }

// Trainer owns all mutable training state: the network being trained, the
// optimizer paired with its trainable parameters, the sampling stream and
// the accumulated history.
//
// Each step runs Sampling → Evaluating → Updating, passing through
// Validating every ValidateEvery steps and at the final step; the loop ends
// in Done when the step budget is exhausted. A single logical thread drives
// the loop; per-point evaluations inside a step are pure and independent.
type Trainer struct {
	cfg      Config
	net      *nn.FieldNetwork
	prob     *pde.Poisson
	opt      optim.Optimizer
	rng      *sampler.Rand
	recorder Recorder
	history  []Checkpoint
}

// New builds a Trainer, rejecting unusable configs up front. The optimizer
// must already be paired with net.Parameters().
func New(cfg Config, net *nn.FieldNetwork, prob *pde.Poisson, opt optim.Optimizer) (*Trainer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:  cfg,
		net:  net,
		prob: prob,
		opt:  opt,
		rng:  sampler.NewRand(cfg.Seed),
	}, nil
}

// SetRecorder installs a checkpoint recorder. Optional.
func (tr *Trainer) SetRecorder(r Recorder) { tr.recorder = r }

// History returns the checkpoints recorded so far.
func (tr *Trainer) History() []Checkpoint { return tr.history }

// Run executes the configured step budget and returns the trained network.
//
// A non-finite loss or gradient is not recovered: Run stops immediately and
// reports the step index.
func (tr *Trainer) Run() (*nn.FieldNetwork, error) {
	cfg := tr.cfg
	for step := 1; step <= cfg.Steps; step++ {
		// Sampling: one fresh dataset per step, on its own split of the
		// root stream.
		ds := sampler.Sample(tr.rng.Split(), tr.prob.Domain, cfg.InteriorPoints, cfg.BoundaryPoints)

		// Evaluating: loss = Lb·MSE(residual) [+ Lc·MSE(boundary)].
		tape := autodiff.NewTape()
		field := tr.net.Bind(tape)
		loss := nn.MeanSquare(tr.prob.Residuals(field, ds.Interior)).Scale(cfg.ResidualWeight)
		if cfg.BoundaryWeight != 0 {
			bnd := nn.MeanSquare(tr.prob.BoundaryMismatch(field, ds)).Scale(cfg.BoundaryWeight)
			loss = loss.Add(bnd)
		}
		lossVal := loss.Data()
		if !finite(lossVal) {
			return nil, fmt.Errorf("%w: loss %v at step %d", ErrNonFiniteLoss, lossVal, step)
		}

		tr.net.ZeroGrad()
		field.Backward(loss)
		if err := tr.checkGradients(step); err != nil {
			return nil, err
		}

		// Updating: parameters and optimizer state move as one unit.
		tr.opt.Step()

		// Validating.
		if step%cfg.ValidateEvery == 0 || step == cfg.Steps {
			cp := Checkpoint{Step: step, Loss: lossVal, LinfError: tr.Validate()}
			tr.history = append(tr.history, cp)
			if tr.recorder != nil {
				if err := tr.recorder.Record(cp); err != nil {
					return nil, fmt.Errorf("train: record checkpoint at step %d: %w", step, err)
				}
			}
		}
	}
	return tr.net, nil
}

func (tr *Trainer) checkGradients(step int) error {
	for _, p := range tr.net.Parameters() {
		for i, g := range p.Grad() {
			if !finite(g) {
				return fmt.Errorf("%w: gradient %s[%d] = %v at step %d",
					ErrNonFiniteLoss, p.Name(), i, g, step)
			}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
