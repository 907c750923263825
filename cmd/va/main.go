// Command va runs the distributed vector-addition benchmark: it
// partitions the dataset across simulated compute units, streams the
// input segments out, launches the kernel everywhere, and checks the
// retrieved result against a host-side reference.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/amit-choudhari/memclave-prim-benchmarks/bench"
	"github.com/amit-choudhari/memclave-prim-benchmarks/device"
	"github.com/amit-choudhari/memclave-prim-benchmarks/partitions"
	"github.com/amit-choudhari/memclave-prim-benchmarks/runner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	p := bench.DefaultParams()
	flag.IntVar(&p.InputSize, "i", p.InputSize, "input size (elements)")
	flag.IntVar(&p.Reps, "r", p.Reps, "timed repetitions")
	flag.IntVar(&p.Warmup, "w", p.Warmup, "warmup repetitions")
	flag.BoolVar(&p.Strong, "strong", p.Strong, "treat -i as the fixed total instead of per-unit size")
	flag.IntVar(&p.Units, "d", p.Units, "number of compute units")
	flag.IntVar(&p.Tasklets, "t", p.Tasklets, "tasklets per unit")
	flag.IntVar(&p.BlockSize, "b", p.BlockSize, "tile buffer size in bytes")
	flag.BoolVar(&p.PrintTrace, "trace", p.PrintTrace, "print per-tasklet trace lines")
	flag.BoolVar(&p.CollectEnergy, "energy", p.CollectEnergy, "report modeled energy")
	flag.StringVar(&p.ResultsFile, "csv", p.ResultsFile, "results CSV to update (optional)")
	flag.Parse()

	inputSize := p.TotalSize()
	layout, err := partitions.NewLayout(inputSize, p.Units, device.ElemBytes)
	if err != nil {
		return err
	}

	cfg := device.Config{Tasklets: p.Tasklets, BlockSize: p.BlockSize}
	if p.PrintTrace {
		cfg.Trace = os.Stdout
	}
	r, err := runner.NewRunner(layout, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("allocated %d unit(s), %d tasklets, input size %d\n",
		p.Units, p.Tasklets, inputSize)

	hostElems := layout.HostElems()
	a := make([]uint32, hostElems)
	b := make([]uint32, hostElems)
	ref := make([]uint32, hostElems)
	out := make([]uint32, hostElems)
	bench.FillInput(a[:inputSize], b[:inputSize])

	timer := bench.NewTimer()
	probe := bench.NewProbe(r.Units)
	var maxCycles uint64

	for rep := 0; rep < p.Warmup+p.Reps; rep++ {
		timed := rep >= p.Warmup

		if timed {
			timer.Start("CPU")
		}
		runner.Reference(ref[:inputSize], a[:inputSize], b[:inputSize])
		if timed {
			timer.Stop("CPU")
		}

		if timed {
			timer.Start("CPU-DPU")
		}
		if err := r.PushInput(a, b); err != nil {
			return err
		}
		if timed {
			timer.Stop("CPU-DPU")
		}

		if timed {
			timer.Start("DPU Kernel")
		}
		if p.CollectEnergy {
			probe.Start()
		}
		if err := r.Launch(); err != nil {
			return err
		}
		if timed {
			timer.Stop("DPU Kernel")
		}

		recs, err := r.PullTelemetry()
		if err != nil {
			return err
		}
		maxCycles = runner.MaxCycles(recs)
		fmt.Printf("unit cycles (whole kernel, max over units): %d\n", maxCycles)

		if timed {
			timer.Start("DPU-CPU")
		}
		if err := r.PullOutput(out); err != nil {
			return err
		}
		if timed {
			timer.Stop("DPU-CPU")
		}
	}

	timer.Print(os.Stdout)
	if p.CollectEnergy {
		fmt.Printf("modeled energy (J): %g\n", probe.Joules(maxCycles))
	}

	if p.ResultsFile != "" {
		for slot, label := range map[string]string{
			"CPU":        "CPU",
			"CPU-DPU":    "U_C2D",
			"DPU-CPU":    "U_D2C",
			"DPU Kernel": "UPMEM",
		} {
			if err := bench.UpdateCSV(p.ResultsFile, "VA", label, timer.Mean(slot)); err != nil {
				return err
			}
		}
	}

	ok, bad := runner.Compare(ref[:inputSize], out[:inputSize])
	if !ok {
		if p.PrintTrace {
			for _, i := range bad {
				fmt.Printf("%d: %d -- %d\n", i, ref[i], out[i])
			}
		}
		return fmt.Errorf("outputs differ at %d indices", len(bad))
	}
	fmt.Println("[OK] outputs are equal")
	return nil
}
