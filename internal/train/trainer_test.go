package train

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"

	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/optim"
	"github.com/spinn-ml/spinn/internal/pde"
	"github.com/spinn-ml/spinn/internal/sampler"
)

func testTrainer(t *testing.T, cfg Config) *Trainer {
	t.Helper()
	prob := pde.Reference()
	rng := sampler.NewRand(42)
	free, fixed := nn.SampleNodes(rng.Split(), prob.Domain, 16, 5)
	net, err := nn.NewFieldNetwork(free, fixed, nn.GaussianKernel{}, rng.Split())
	require.NoError(t, err)
	opt := optim.NewAdam(net.Parameters(), optim.AdamConfig{LR: 0.01})
	tr, err := New(cfg, net, prob, opt)
	require.NoError(t, err)
	return tr
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	prob := pde.Reference()
	rng := sampler.NewRand(1)
	free, fixed := nn.SampleNodes(rng.Split(), prob.Domain, 8, 4)
	net, err := nn.NewFieldNetwork(free, fixed, nn.GaussianKernel{}, rng.Split())
	require.NoError(t, err)
	opt := optim.NewAdam(net.Parameters(), optim.AdamConfig{})

	for name, cfg := range map[string]Config{
		"negative steps":    {Steps: -1},
		"negative interval": {ValidateEvery: -100},
		"negative interior": {InteriorPoints: -5},
		"negative boundary": {BoundaryPoints: -2},
		"one-point grid":    {GridSize: 1},
		"negative grid":     {GridSize: -10},
	} {
		_, err := New(cfg, net, prob, opt)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 1000, cfg.Steps)
	assert.Equal(t, 100, cfg.ValidateEvery)
	assert.Equal(t, 50, cfg.InteriorPoints)
	assert.Equal(t, 10, cfg.BoundaryPoints)
	assert.Equal(t, 1.0, cfg.ResidualWeight)
	assert.Zero(t, cfg.BoundaryWeight, "the boundary term stays inert unless enabled")
	assert.Equal(t, 100, cfg.GridSize)
}

func TestRunHistorySchedule(t *testing.T) {
	tr := testTrainer(t, Config{
		Steps:          7,
		ValidateEvery:  3,
		InteriorPoints: 6,
		BoundaryPoints: 3,
		GridSize:       8,
		Seed:           1,
	})

	var recorded []Checkpoint
	tr.SetRecorder(RecorderFunc(func(c Checkpoint) error {
		recorded = append(recorded, c)
		return nil
	}))

	net, err := tr.Run()
	require.NoError(t, err)
	require.NotNil(t, net)

	// Validation fires every ValidateEvery steps and at the final step.
	history := tr.History()
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Step)
	assert.Equal(t, 6, history[1].Step)
	assert.Equal(t, 7, history[2].Step)
	assert.Equal(t, history, recorded, "recorder sees exactly the history")

	for _, c := range history {
		assert.False(t, math.IsNaN(c.Loss) || math.IsInf(c.Loss, 0), "loss at step %d", c.Step)
		assert.GreaterOrEqual(t, c.LinfError, 0.0, "error norm at step %d", c.Step)
	}
}

func TestRunRejectsNonFiniteState(t *testing.T) {
	tr := testTrainer(t, Config{Steps: 5, InteriorPoints: 4, BoundaryPoints: 2, GridSize: 5})

	state := tr.net.StateDict()
	state["readout.weight"][0] = math.NaN()
	require.NoError(t, tr.net.LoadStateDict(state))

	_, err := tr.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonFiniteLoss)
	assert.Contains(t, err.Error(), "step 1")
}

func TestRecorderErrorStopsTraining(t *testing.T) {
	tr := testTrainer(t, Config{
		Steps:          6,
		ValidateEvery:  2,
		InteriorPoints: 4,
		BoundaryPoints: 2,
		GridSize:       5,
	})

	sentinel := errors.New("recorder down")
	calls := 0
	tr.SetRecorder(RecorderFunc(func(Checkpoint) error {
		calls++
		return sentinel
	}))

	_, err := tr.Run()
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls, "training halts at the first recorder failure")
}

func TestGrids(t *testing.T) {
	prob := pde.Reference()

	exact := ExactGrid(prob, 11)
	r, c := exact.Dims()
	assert.Equal(t, 11, r)
	assert.Equal(t, 11, c)

	// sin(2πx)·sin(4πy) vanishes on the whole boundary of the unit square.
	for i := 0; i < 11; i++ {
		assert.InDelta(t, 0, exact.At(0, i), 1e-12)
		assert.InDelta(t, 0, exact.At(10, i), 1e-12)
		assert.InDelta(t, 0, exact.At(i, 0), 1e-12)
		assert.InDelta(t, 0, exact.At(i, 10), 1e-12)
	}

	// Grid layout is row = y level, column = x level, endpoints included.
	assert.InDelta(t, prob.Exact(0.3, 0.7), exact.At(7, 3), 1e-12)

	tr := testTrainer(t, Config{GridSize: 9})
	field := FieldGrid(tr.net, prob.Domain, 9)
	r, c = field.Dims()
	assert.Equal(t, 9, r)
	assert.Equal(t, 9, c)
	assert.InDelta(t, tr.net.At(0.25, 0.5), field.At(4, 2), 1e-12)
}

func TestInfNorm(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{1, 2.5, 2, 4})

	assert.Equal(t, 0.0, InfNorm(a, a))
	assert.InDelta(t, 1.0, InfNorm(a, b), 1e-15)
}

func TestTrainingConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}

	tr := testTrainer(t, Config{
		Steps:          300,
		ValidateEvery:  50,
		InteriorPoints: 30,
		BoundaryPoints: 8,
		BoundaryWeight: 1,
		GridSize:       30,
		Seed:           7,
	})
	baseline := tr.Validate()

	_, err := tr.Run()
	require.NoError(t, err)

	history := tr.History()
	require.NotEmpty(t, history)
	first, last := history[0], history[len(history)-1]
	assert.Less(t, last.Loss, first.Loss, "loss should drop over the run")
	assert.Less(t, last.LinfError, baseline, "error should drop below the untrained field")
}
