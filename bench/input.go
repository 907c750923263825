package bench

import "math/rand"

// FillInput populates both input arrays from a fixed seed so runs are
// reproducible across hosts and repetitions.
func FillInput(a, b []uint32) {
	rng := rand.New(rand.NewSource(0))
	for i := range a {
		a[i] = rng.Uint32()
	}
	for i := range b {
		b[i] = rng.Uint32()
	}
}
