package bench

import "github.com/amit-choudhari/memclave-prim-benchmarks/device"

// Energy model constants: picojoules per byte of bulk-memory traffic
// and per kernel cycle. Coarse figures in the range published for PIM
// hardware; the probe is a modeling aid, not a measurement.
const (
	pjPerByte  = 45.0
	pjPerCycle = 1.2
)

// Probe models per-run energy from the units' traffic counters and
// the kernel cycle count. Start snapshots the counters; Joules charges
// only the traffic since then.
type Probe struct {
	units      []*device.Unit
	startBytes []uint64
}

// NewProbe attaches a probe to a cluster of units.
func NewProbe(units []*device.Unit) *Probe {
	return &Probe{
		units:      units,
		startBytes: make([]uint64, len(units)),
	}
}

// Start snapshots the per-unit traffic counters.
func (p *Probe) Start() {
	for i, u := range p.units {
		p.startBytes[i] = u.BytesMoved()
	}
}

// Joules estimates the energy of the interval since Start, given the
// maximum kernel cycle count reported by telemetry.
func (p *Probe) Joules(maxCycles uint64) float64 {
	var bytes uint64
	for i, u := range p.units {
		bytes += u.BytesMoved() - p.startBytes[i]
	}
	pj := float64(bytes)*pjPerByte + float64(maxCycles)*pjPerCycle*float64(len(p.units))
	return pj * 1e-12
}
