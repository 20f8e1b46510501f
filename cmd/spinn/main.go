// Copyright 2025 SPINN ML Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command spinn trains the meshless field network on the reference Poisson
// problem and reports the infinity-norm error against the analytic
// solution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/spinn-ml/spinn/internal/nn"
	"github.com/spinn-ml/spinn/internal/optim"
	"github.com/spinn-ml/spinn/internal/pde"
	"github.com/spinn-ml/spinn/internal/sampler"
	"github.com/spinn-ml/spinn/internal/storage"
	"github.com/spinn-ml/spinn/internal/train"
)

func main() {
	steps := flag.Int("steps", 5000, "Number of training steps")
	lr := flag.Float64("lr", 0.01, "Learning rate for the Adam optimizer")
	freeNodes := flag.Int("free", 64, "Number of trainable interior centers")
	fixedPerEdge := flag.Int("fixed", 9, "Fixed boundary centers per edge")
	interior := flag.Int("interior", 50, "Collocation points per step")
	perEdge := flag.Int("edge", 10, "Boundary points per edge per step")
	kernelName := flag.String("kernel", "gaussian", "Activation kernel: gaussian or bump")
	lb := flag.Float64("lb", 1.0, "Residual loss weight")
	lc := flag.Float64("lc", 0.0, "Boundary loss weight (0 leaves the boundary term inert)")
	seed := flag.Uint64("seed", 0, "Root random seed")
	validateEvery := flag.Int("validate-every", 100, "Validation interval in steps")
	gridSize := flag.Int("grid", 100, "Validation grid resolution")
	out := flag.String("out", "", "Path to save the trained network (.spinn), empty to skip")
	historyDB := flag.String("history", "", "SQLite database for run history, empty to skip")
	flag.Parse()

	kernel, err := nn.KernelByName(*kernelName)
	if err != nil {
		log.Fatalf("Invalid kernel: %v", err)
	}

	problem := pde.Reference()

	fmt.Println("🚀 SPINN - Poisson field network training")
	fmt.Printf("   Domain: [%g, %g] × [%g, %g], diffusivity %g\n",
		problem.Domain.X0, problem.Domain.X1, problem.Domain.Y0, problem.Domain.Y1,
		problem.Diffusivity)

	rng := sampler.NewRand(*seed)
	free, fixed := nn.SampleNodes(rng.Split(), problem.Domain, *freeNodes, *fixedPerEdge)
	net, err := nn.NewFieldNetwork(free, fixed, kernel, rng.Split())
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}

	fmt.Printf("   Centers: %d free + %d fixed, kernel %s\n",
		len(free), len(fixed), kernel.Name())
	fmt.Printf("   Optimizer: Adam (lr=%g), loss: %g·MSE(residual) + %g·MSE(boundary)\n",
		*lr, *lb, *lc)
	fmt.Printf("   Steps: %d, batch: %d interior + 4×%d boundary\n",
		*steps, *interior, *perEdge)

	optimizer := optim.NewAdam(net.Parameters(), optim.AdamConfig{LR: *lr})

	trainer, err := train.New(train.Config{
		Steps:          *steps,
		ValidateEvery:  *validateEvery,
		InteriorPoints: *interior,
		BoundaryPoints: *perEdge,
		ResidualWeight: *lb,
		BoundaryWeight: *lc,
		GridSize:       *gridSize,
		Seed:           *seed + 1,
	}, net, problem, optimizer)
	if err != nil {
		log.Fatalf("Invalid training config: %v", err)
	}

	ctx := context.Background()
	var store *storage.SQLiteStore
	print := train.RecorderFunc(func(c train.Checkpoint) error {
		fmt.Printf("Step %6d: loss=%.6g, L∞=%.4f\n", c.Step, c.Loss, c.LinfError)
		return nil
	})
	if *historyDB != "" {
		store = storage.NewSQLiteStore(*historyDB)
		if err := store.Init(ctx); err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer func() {
			_ = store.Close()
		}()
		runID, err := store.StartRun(ctx, storage.RunInfo{
			Kernel: kernel.Name(),
			Steps:  *steps,
			Seed:   *seed,
		})
		if err != nil {
			log.Fatalf("Failed to start run: %v", err)
		}
		persist := store.Recorder(ctx, runID)
		trainer.SetRecorder(train.RecorderFunc(func(c train.Checkpoint) error {
			if err := print.Record(c); err != nil {
				return err
			}
			return persist.Record(c)
		}))
	} else {
		trainer.SetRecorder(print)
	}

	fmt.Println("🎓 Training...")
	trained, err := trainer.Run()
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	history := trainer.History()
	final := history[len(history)-1]
	fmt.Println("✅ Training complete!")
	fmt.Printf("   Final loss: %.6g, final L∞ error: %.4f on %d×%d grid\n",
		final.Loss, final.LinfError, *gridSize, *gridSize)

	if *out != "" {
		meta := map[string]string{
			"problem": "poisson-reference",
		}
		if err := nn.Save(trained, *out, meta); err != nil {
			log.Fatalf("Failed to save network: %v", err)
		}
		fmt.Printf("   Saved trained network to %s\n", *out)
	}
}
