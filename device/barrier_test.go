package device

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarrier_PhasesStayOrdered(t *testing.T) {
	const parties = 8
	const phases = 5

	b := NewBarrier(parties)
	var before [phases]atomic.Int32

	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ph := 0; ph < phases; ph++ {
				before[ph].Add(1)
				b.Wait()
				// After the barrier every participant must have
				// arrived at this phase.
				if got := before[ph].Load(); got != parties {
					t.Errorf("phase %d released with %d/%d arrivals", ph, got, parties)
				}
			}
		}()
	}
	wg.Wait()
}

func TestBarrier_SingleParty(t *testing.T) {
	b := NewBarrier(1)
	// Must not block.
	b.Wait()
	b.Wait()
}

func TestBarrier_RejectsZeroParties(t *testing.T) {
	assert.Panics(t, func() { NewBarrier(0) })
}
