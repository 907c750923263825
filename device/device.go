// Package device implements a simulated processing-in-memory compute
// unit: a large bulk memory reachable from the host, a small on-chip
// arena private to the unit, and a fixed group of cooperative tasklets
// that stream tiles between the two.
package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

// ElemBytes is the width of the element type streamed by the kernels.
const ElemBytes = 4

// Default unit geometry. BlockSize is the per-tasklet tile buffer in
// bytes and must hold a whole number of elements.
const (
	DefaultTasklets  = 16
	DefaultBlockSize = 1024
	DefaultMRAMSize  = 64 << 20
	DefaultWRAMSize  = 64 << 10
)

// Arguments is the host-authored argument record pushed to each unit
// before launch: three consecutive 32-bit fields, no padding.
type Arguments struct {
	Size         uint32 // valid bytes of each array segment on this unit
	TransferSize uint32 // bytes physically staged per segment
	Kernel       KernelID
}

// Config controls the geometry of a unit. Zero fields take defaults.
type Config struct {
	Tasklets  int
	BlockSize int // bytes per on-chip tile buffer
	MRAMSize  int
	WRAMSize  int

	// Trace, when non-nil, receives per-tasklet diagnostic lines.
	Trace io.Writer
}

// Unit is one independent compute element. Units never communicate
// with each other; the host reaches a unit only through CopyTo,
// CopyFrom, WriteArguments and Launch.
type Unit struct {
	id        int
	mram      []byte
	arena     *Arena
	args      Arguments
	tasklets  int
	blockSize int
	trace     io.Writer

	bytesMoved atomic.Uint64 // bulk-memory traffic, for the energy probe
}

// NewUnit allocates a unit. The top LogBytes of bulk memory are
// reserved for the telemetry record.
func NewUnit(id int, cfg Config) (*Unit, error) {
	if cfg.Tasklets == 0 {
		cfg.Tasklets = DefaultTasklets
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.MRAMSize == 0 {
		cfg.MRAMSize = DefaultMRAMSize
	}
	if cfg.WRAMSize == 0 {
		cfg.WRAMSize = DefaultWRAMSize
	}
	if cfg.Tasklets < 0 {
		return nil, fmt.Errorf("unit %d: tasklet count %d must be positive", id, cfg.Tasklets)
	}
	if cfg.BlockSize <= 0 || cfg.BlockSize%ElemBytes != 0 {
		return nil, fmt.Errorf("unit %d: block size %d must be a positive multiple of %d",
			id, cfg.BlockSize, ElemBytes)
	}
	if cfg.MRAMSize <= LogBytes {
		return nil, fmt.Errorf("unit %d: bulk memory %d too small for telemetry region", id, cfg.MRAMSize)
	}
	// Tile buffers land 8-byte aligned in the arena, so the footprint
	// is the padded block size, not the raw one.
	if need := 2 * ((cfg.BlockSize + 7) &^ 7) * cfg.Tasklets; need > cfg.WRAMSize {
		return nil, fmt.Errorf("unit %d: %d tasklets with %d-byte tiles need %d bytes of on-chip memory, have %d",
			id, cfg.Tasklets, cfg.BlockSize, need, cfg.WRAMSize)
	}

	return &Unit{
		id:        id,
		mram:      make([]byte, cfg.MRAMSize),
		arena:     NewArena(cfg.WRAMSize),
		tasklets:  cfg.Tasklets,
		blockSize: cfg.BlockSize,
		trace:     cfg.Trace,
	}, nil
}

// ID returns the unit's index within its cluster.
func (u *Unit) ID() int {
	return u.id
}

// Tasklets returns the number of cooperative tasklets.
func (u *Unit) Tasklets() int {
	return u.tasklets
}

// BlockSize returns the tile buffer size in bytes.
func (u *Unit) BlockSize() int {
	return u.blockSize
}

// MRAMSize returns the bulk memory capacity in bytes.
func (u *Unit) MRAMSize() int {
	return len(u.mram)
}

// TelemetryOffset is the reserved bulk-memory offset of the telemetry
// record.
func (u *Unit) TelemetryOffset() int {
	return len(u.mram) - LogBytes
}

// WriteArguments stores the argument record at its well-known symbol.
// The record is immutable once the unit launches.
func (u *Unit) WriteArguments(args Arguments) {
	u.args = args
}

// Arguments returns the current argument record.
func (u *Unit) Arguments() Arguments {
	return u.args
}

// CopyTo stages host data into bulk memory at the given byte offset.
func (u *Unit) CopyTo(offset int, src []byte) error {
	if offset < 0 || offset+len(src) > len(u.mram) {
		return fmt.Errorf("unit %d: copy of %d bytes at offset %d exceeds bulk memory of %d",
			u.id, len(src), offset, len(u.mram))
	}
	copy(u.mram[offset:], src)
	u.bytesMoved.Add(uint64(len(src)))
	return nil
}

// CopyFrom retrieves bulk memory at the given byte offset into dst.
func (u *Unit) CopyFrom(offset int, dst []byte) error {
	if offset < 0 || offset+len(dst) > len(u.mram) {
		return fmt.Errorf("unit %d: copy of %d bytes at offset %d exceeds bulk memory of %d",
			u.id, len(dst), offset, len(u.mram))
	}
	copy(dst, u.mram[offset:])
	u.bytesMoved.Add(uint64(len(dst)))
	return nil
}

// BytesMoved reports the cumulative bulk-memory traffic of this unit,
// host transfers and tasklet DMAs combined.
func (u *Unit) BytesMoved() uint64 {
	return u.bytesMoved.Load()
}

// Launch runs the kernel selected by the argument record and blocks
// until every tasklet has completed. There is no cancellation: a
// tasklet that never finishes blocks the caller indefinitely.
func (u *Unit) Launch() error {
	entry, ok := kernels[u.args.Kernel]
	if !ok {
		return fmt.Errorf("unit %d: unknown kernel selector %d", u.id, u.args.Kernel)
	}
	if err := entry(u); err != nil {
		return fmt.Errorf("unit %d: %w", u.id, err)
	}
	return nil
}

// mramRead streams bytes from bulk memory into an on-chip buffer,
// charging the tasklet's cycle counter.
func (u *Unit) mramRead(offset int, dst []byte, ctr *Counter) error {
	if offset < 0 || offset+len(dst) > len(u.mram) {
		return fmt.Errorf("mram read of %d bytes at offset %d out of range", len(dst), offset)
	}
	copy(dst, u.mram[offset:])
	ctr.AddTransfer(len(dst))
	u.bytesMoved.Add(uint64(len(dst)))
	return nil
}

// mramWrite streams an on-chip buffer back to bulk memory.
func (u *Unit) mramWrite(src []byte, offset int, ctr *Counter) error {
	if offset < 0 || offset+len(src) > len(u.mram) {
		return fmt.Errorf("mram write of %d bytes at offset %d out of range", len(src), offset)
	}
	copy(u.mram[offset:], src)
	ctr.AddTransfer(len(src))
	u.bytesMoved.Add(uint64(len(src)))
	return nil
}

// EncodeWords serializes elements into the on-wire byte layout used by
// the unit's bulk memory. dst must hold len(src)*ElemBytes bytes.
func EncodeWords(dst []byte, src []uint32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*ElemBytes:], v)
	}
}

// DecodeWords parses bulk-memory bytes back into elements. src must
// hold len(dst)*ElemBytes bytes.
func DecodeWords(dst []uint32, src []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(src[i*ElemBytes:])
	}
}
