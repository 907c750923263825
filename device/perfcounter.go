package device

// Cycle cost model for the simulated unit. The shape follows PIM
// hardware timing: a bulk-memory DMA pays a fixed setup cost plus a
// bandwidth term, and the add loop pays a fixed cost per element.
const (
	dmaSetupCycles   = 64
	dmaBytesPerCycle = 8
	addCyclesPerElem = 4
)

// Counter accumulates the modeled cycle count of one tasklet. Each
// tasklet owns its counter exclusively, so no synchronization is
// needed; determinism is what makes the telemetry reduction testable.
type Counter struct {
	cycles uint64
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.cycles = 0
}

// AddTransfer charges one bulk-memory DMA of the given byte length.
func (c *Counter) AddTransfer(bytes int) {
	if bytes <= 0 {
		return
	}
	c.cycles += dmaSetupCycles + uint64((bytes+dmaBytesPerCycle-1)/dmaBytesPerCycle)
}

// AddCompute charges the elementwise add over elems elements.
func (c *Counter) AddCompute(elems int) {
	if elems <= 0 {
		return
	}
	c.cycles += uint64(elems) * addCyclesPerElem
}

// Cycles returns the accumulated cycle count.
func (c *Counter) Cycles() uint64 {
	return c.cycles
}
