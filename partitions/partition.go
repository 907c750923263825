// Package partitions decomposes a dataset of fixed-width elements
// into per-unit contiguous ranges with the alignment padding the
// device-side streaming loop expects.
package partitions

import "fmt"

// Layout describes how a dataset is split across compute units. The
// addressing stride is uniform (PerUnit elements per unit) while the
// valid data length of the last unit may differ; downstream code must
// not assume the units are symmetric.
type Layout struct {
	InputSize int // logical element count N
	ElemBytes int // element width w
	NumUnits  int

	PaddedSize int // InputSize rounded so the total byte count is 8-byte aligned
	PerUnit    int // per-unit element count, 8-byte aligned; the transfer stride
}

// NewLayout computes the decomposition of inputSize elements of width
// elemBytes across numUnits units. A unit count of zero is a
// configuration error and aborts the run.
func NewLayout(inputSize, numUnits, elemBytes int) (*Layout, error) {
	if numUnits <= 0 {
		return nil, fmt.Errorf("unit count must be at least 1, got %d", numUnits)
	}
	if inputSize < 0 {
		return nil, fmt.Errorf("input size must be non-negative, got %d", inputSize)
	}
	if elemBytes <= 0 {
		return nil, fmt.Errorf("element width must be positive, got %d", elemBytes)
	}

	padded := inputSize
	if (inputSize*elemBytes)%8 != 0 {
		padded = roundUp(inputSize, 8)
	}
	perUnit := ceilDiv(inputSize, numUnits)
	if (perUnit*elemBytes)%8 != 0 {
		perUnit = roundUp(perUnit, 8)
	}

	return &Layout{
		InputSize:  inputSize,
		ElemBytes:  elemBytes,
		NumUnits:   numUnits,
		PaddedSize: padded,
		PerUnit:    perUnit,
	}, nil
}

// TransferBytes is the uniform byte stride physically moved per array
// segment, identical for every unit.
func (l *Layout) TransferBytes() int {
	return l.PerUnit * l.ElemBytes
}

// SizeElems returns the valid element count of unit i. Every unit but
// the last holds PerUnit elements; the last absorbs the remainder and
// is clamped at zero when the padded total runs out early.
func (l *Layout) SizeElems(i int) int {
	remaining := l.PaddedSize - l.PerUnit*i
	if remaining < 0 {
		return 0
	}
	if remaining > l.PerUnit {
		return l.PerUnit
	}
	return remaining
}

// SizeBytes returns the valid byte count of unit i's segments.
func (l *Layout) SizeBytes(i int) int {
	return l.SizeElems(i) * l.ElemBytes
}

// OffsetElems returns unit i's starting element offset within the
// host buffers. Addressing always uses the uniform stride.
func (l *Layout) OffsetElems(i int) int {
	return l.PerUnit * i
}

// HostElems is the element count the host must allocate per buffer:
// the uniform stride times the unit count, covering all padding.
func (l *Layout) HostElems() int {
	return l.PerUnit * l.NumUnits
}

// Validate checks the decomposition invariants: per-unit sizes are
// contiguous, non-overlapping, byte-aligned, and sum to the padded
// total.
func (l *Layout) Validate() error {
	sum := 0
	for i := 0; i < l.NumUnits; i++ {
		size := l.SizeElems(i)
		if size < 0 {
			return fmt.Errorf("unit %d: negative size %d", i, size)
		}
		if size > l.PerUnit {
			return fmt.Errorf("unit %d: size %d exceeds stride %d", i, size, l.PerUnit)
		}
		sum += size
	}
	if sum != l.PaddedSize {
		return fmt.Errorf("unit sizes sum to %d, want padded total %d", sum, l.PaddedSize)
	}
	if (l.PerUnit*l.ElemBytes)%8 != 0 {
		return fmt.Errorf("transfer stride %d bytes is not 8-byte aligned", l.PerUnit*l.ElemBytes)
	}
	return nil
}

func roundUp(n, multiple int) int {
	return ((n + multiple - 1) / multiple) * multiple
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
