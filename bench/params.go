// Package bench carries the host-side benchmark collaborators: run
// parameters, the repetition timer, CSV result persistence, the
// energy probe and deterministic input generation.
package bench

// Params are the externally owned run parameters fed into the host
// partitioner. Diagnostics and energy collection are runtime flags,
// not build-time switches.
type Params struct {
	InputSize int  // per-unit elements when scaling weakly, total otherwise
	Reps      int  // timed repetitions
	Warmup    int  // untimed warmup repetitions
	Strong    bool // true: InputSize is the fixed total; false: scale per unit

	Units     int
	Tasklets  int
	BlockSize int // bytes per on-chip tile buffer

	PrintTrace    bool
	CollectEnergy bool
	ResultsFile   string
}

// DefaultParams mirrors the benchmark's stock configuration.
func DefaultParams() Params {
	return Params{
		InputSize: 2621440,
		Reps:      3,
		Warmup:    1,
		Units:     4,
		Tasklets:  16,
		BlockSize: 1024,
	}
}

// TotalSize resolves the scaling mode into the total element count N.
func (p Params) TotalSize() int {
	if p.Strong {
		return p.InputSize
	}
	return p.InputSize * p.Units
}
