package device

import "encoding/binary"

// Telemetry record constants. The record is a raw 64-byte region of
// bulk memory parsed strictly by position; the magic word is the only
// validity signal, so stale or zeroed memory reads as invalid.
const (
	LogMagic uint64 = 0x534B4C4F475631 // "SKLOGV1"
	LogWords        = 8
	LogBytes        = LogWords * 8
)

// TelemetryRecord summarizes per-tasklet timing for one unit. Exactly
// one tasklet writes it, once, after the drain barrier.
type TelemetryRecord struct {
	Magic     uint64
	MaxCycles uint64 // max across tasklets
	Start     uint64 // cycle snapshot at stream start
	End       uint64 // cycle snapshot at stream end
	Tasklets  uint64
	Done      uint64
}

// Valid reports whether the record was actually written by a unit.
func (r TelemetryRecord) Valid() bool {
	return r.Magic == LogMagic
}

// encode serializes the record into dst, which must hold LogBytes.
// Words [5] and [6] are reserved and always zero.
func (r TelemetryRecord) encode(dst []byte) {
	_ = dst[LogBytes-1]
	binary.LittleEndian.PutUint64(dst[0:], r.Magic)
	binary.LittleEndian.PutUint64(dst[8:], r.MaxCycles)
	binary.LittleEndian.PutUint64(dst[16:], r.Start)
	binary.LittleEndian.PutUint64(dst[24:], r.End)
	binary.LittleEndian.PutUint64(dst[32:], r.Tasklets)
	binary.LittleEndian.PutUint64(dst[40:], 0)
	binary.LittleEndian.PutUint64(dst[48:], 0)
	binary.LittleEndian.PutUint64(dst[56:], r.Done)
}

// DecodeTelemetry parses a record pulled from a unit's reserved bulk
// memory region. src must hold at least LogBytes.
func DecodeTelemetry(src []byte) TelemetryRecord {
	_ = src[LogBytes-1]
	return TelemetryRecord{
		Magic:     binary.LittleEndian.Uint64(src[0:]),
		MaxCycles: binary.LittleEndian.Uint64(src[8:]),
		Start:     binary.LittleEndian.Uint64(src[16:]),
		End:       binary.LittleEndian.Uint64(src[24:]),
		Tasklets:  binary.LittleEndian.Uint64(src[32:]),
		Done:      binary.LittleEndian.Uint64(src[56:]),
	}
}
