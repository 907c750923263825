package runner

// Reference computes the host-side reference sum C[i] = A[i] + B[i]
// with the same fixed-width wraparound semantics as the device kernel.
func Reference(dst, a, b []uint32) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// Compare checks the device output against the reference over the
// logical input range. The comparison is exact equality; on failure
// the mismatched indices are returned for diagnostics.
func Compare(want, got []uint32) (bool, []int) {
	var bad []int
	for i := range want {
		if want[i] != got[i] {
			bad = append(bad, i)
		}
	}
	return len(bad) == 0, bad
}
