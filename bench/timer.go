package bench

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Timer accumulates wall-clock intervals into named slots, one sample
// per timed repetition.
type Timer struct {
	started map[string]time.Time
	samples map[string][]float64
}

// NewTimer creates an empty timer.
func NewTimer() *Timer {
	return &Timer{
		started: make(map[string]time.Time),
		samples: make(map[string][]float64),
	}
}

// Start opens an interval for the slot.
func (t *Timer) Start(slot string) {
	t.started[slot] = time.Now()
}

// Stop closes the slot's open interval and records it in seconds.
// Stop without a matching Start is ignored.
func (t *Timer) Stop(slot string) {
	begin, ok := t.started[slot]
	if !ok {
		return
	}
	delete(t.started, slot)
	t.samples[slot] = append(t.samples[slot], time.Since(begin).Seconds())
}

// Samples returns the recorded intervals of a slot in seconds.
func (t *Timer) Samples(slot string) []float64 {
	return t.samples[slot]
}

// Mean returns the average interval of a slot in seconds, or zero if
// the slot has no samples.
func (t *Timer) Mean(slot string) float64 {
	s := t.samples[slot]
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}

// StdDev returns the sample standard deviation of a slot in seconds.
func (t *Timer) StdDev(slot string) float64 {
	s := t.samples[slot]
	if len(s) < 2 {
		return 0
	}
	return stat.StdDev(s, nil)
}

// Print writes one line per slot with the mean and standard deviation
// in milliseconds, in slot-name order.
func (t *Timer) Print(w io.Writer) {
	slots := make([]string, 0, len(t.samples))
	for slot := range t.samples {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		fmt.Fprintf(w, "%s\t%.3f ms\t(sd %.3f ms, n=%d)\n",
			slot, t.Mean(slot)*1e3, t.StdDev(slot)*1e3, len(t.samples[slot]))
	}
}
