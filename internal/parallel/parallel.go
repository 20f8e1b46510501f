// Package parallel fans pure per-point work out across goroutines; the
// dense validation-grid evaluation is the main consumer.
package parallel

import (
	"runtime"
	"sync"
)

// Config tunes the fan-out.
type Config struct {
	Enabled      bool // run chunks on worker goroutines when true
	NumWorkers   int  // goroutine count for the chunked path
	MinChunkSize int  // below this many items the loop stays inline
}

// DefaultConfig sizes the fan-out to the machine's CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For runs f(i) for every i in [0, n). When enabled and the range is large
// enough, the indices are cut into contiguous chunks with one goroutine per
// chunk; small or disabled runs stay inline. f must be safe to call
// concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	// Ceiling division over the workers, floored at the chunk minimum.
	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForGrid executes f(i, j) over an rows×cols index grid, flattened
// row-major so the whole grid counts toward the chunking threshold.
func ForGrid(rows, cols int, f func(i, j int), cfg Config) {
	For(rows*cols, func(k int) {
		f(k/cols, k%cols)
	}, cfg)
}
