package device

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadUnit stages two word arrays into a fresh unit and arms the
// vector-add kernel with the given valid size.
func loadUnit(t *testing.T, cfg Config, a, b []uint32, sizeBytes int) *Unit {
	t.Helper()

	u, err := NewUnit(0, cfg)
	require.NoError(t, err)

	transfer := len(a) * ElemBytes
	seg := make([]byte, transfer)
	EncodeWords(seg, a)
	require.NoError(t, u.CopyTo(0, seg))
	EncodeWords(seg, b)
	require.NoError(t, u.CopyTo(transfer, seg))

	u.WriteArguments(Arguments{
		Size:         uint32(sizeBytes),
		TransferSize: uint32(transfer),
		Kernel:       KernelVectorAdd,
	})
	return u
}

// pullOutput reads back the B segment as words.
func pullOutput(t *testing.T, u *Unit, elems int) []uint32 {
	t.Helper()

	transfer := int(u.Arguments().TransferSize)
	seg := make([]byte, transfer)
	require.NoError(t, u.CopyFrom(transfer, seg))
	out := make([]uint32, elems)
	DecodeWords(out, seg[:elems*ElemBytes])
	return out
}

func TestVectorAdd_CoversPartitionExactlyOnce(t *testing.T) {
	// Each element carries an index-keyed value; a gap would leave
	// B[i] unchanged and an overlap would add A[i] twice.
	cases := []struct {
		name      string
		elems     int
		tasklets  int
		blockSize int
	}{
		{"single_tile", 8, 1, 32},
		{"exact_tiles", 64, 4, 32},
		{"remainder_tile", 70, 4, 32},
		{"fewer_elements_than_tasklets", 2, 8, 32},
		{"one_tasklet", 100, 1, 64},
		{"odd_everything", 1234, 3, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := make([]uint32, tc.elems)
			b := make([]uint32, tc.elems)
			for i := range a {
				a[i] = uint32(i + 1)
				b[i] = uint32(1000 + i)
			}

			u := loadUnit(t, Config{Tasklets: tc.tasklets, BlockSize: tc.blockSize, MRAMSize: 1 << 20},
				a, b, tc.elems*ElemBytes)
			require.NoError(t, u.Launch())

			out := pullOutput(t, u, tc.elems)
			for i := range out {
				assert.Equal(t, b[i]+a[i], out[i], "element %d", i)
			}
		})
	}
}

func TestVectorAdd_RemainderSmallerThanOneTile(t *testing.T) {
	// Partition of blockElems*tasklets + 3 elements: the final tile
	// holds exactly 3 elements and must not read past the bound.
	const blockSize = 32 // 8 elements
	const tasklets = 2
	elems := (blockSize/ElemBytes)*tasklets + 3

	// Stage one extra element beyond the valid range as a canary.
	a := make([]uint32, elems+1)
	b := make([]uint32, elems+1)
	for i := range a {
		a[i] = uint32(i + 1)
		b[i] = 7
	}

	u := loadUnit(t, Config{Tasklets: tasklets, BlockSize: blockSize, MRAMSize: 1 << 20},
		a, b, elems*ElemBytes)
	require.NoError(t, u.Launch())

	out := pullOutput(t, u, elems+1)
	for i := 0; i < elems; i++ {
		assert.Equal(t, b[i]+a[i], out[i], "element %d", i)
	}
	assert.Equal(t, uint32(7), out[elems], "canary past the partition bound was touched")
}

func TestVectorAdd_Wraparound(t *testing.T) {
	a := []uint32{0xFFFFFFFF, 0xFFFFFFFF, 0x80000000, 1}
	b := []uint32{1, 0xFFFFFFFF, 0x80000000, 0}

	u := loadUnit(t, Config{Tasklets: 2, BlockSize: 8, MRAMSize: 1 << 16},
		a, b, len(a)*ElemBytes)
	require.NoError(t, u.Launch())

	out := pullOutput(t, u, len(a))
	assert.Equal(t, []uint32{0, 0xFFFFFFFE, 0, 1}, out)
}

func TestVectorAdd_EmptyPartition(t *testing.T) {
	// A zero-size partition streams nothing but still drains and
	// writes the telemetry record.
	a := make([]uint32, 8)
	b := make([]uint32, 8)
	u := loadUnit(t, Config{Tasklets: 4, BlockSize: 16, MRAMSize: 1 << 16}, a, b, 0)
	require.NoError(t, u.Launch())

	buf := make([]byte, LogBytes)
	require.NoError(t, u.CopyFrom(u.TelemetryOffset(), buf))
	rec := DecodeTelemetry(buf)
	assert.True(t, rec.Valid())
	assert.Zero(t, rec.MaxCycles)
	assert.Equal(t, uint64(1), rec.Done)
}

func TestVectorAdd_TelemetryRecord(t *testing.T) {
	const tasklets = 4
	elems := 256
	a := make([]uint32, elems)
	b := make([]uint32, elems)

	u := loadUnit(t, Config{Tasklets: tasklets, BlockSize: 64, MRAMSize: 1 << 20},
		a, b, elems*ElemBytes)
	require.NoError(t, u.Launch())

	buf := make([]byte, LogBytes)
	require.NoError(t, u.CopyFrom(u.TelemetryOffset(), buf))
	rec := DecodeTelemetry(buf)

	require.True(t, rec.Valid())
	assert.Equal(t, uint64(tasklets), rec.Tasklets)
	assert.Equal(t, uint64(1), rec.Done)
	assert.Positive(t, rec.MaxCycles)
	assert.Zero(t, rec.Start, "counter snapshot before the stream loop")
	assert.Equal(t, rec.MaxCycles, rec.End-rec.Start)

	// The cycle model is deterministic: every tasklet streams the
	// same number of whole tiles here, so the max equals the work of
	// any one tasklet. 256 elems / 16-elem tiles / 4 tasklets = 4
	// tiles each, 3 transfers and one add pass per tile.
	var want Counter
	for tile := 0; tile < 4; tile++ {
		want.AddTransfer(64)
		want.AddTransfer(64)
		want.AddCompute(16)
		want.AddTransfer(64)
	}
	assert.Equal(t, want.Cycles(), rec.MaxCycles)
}

func TestVectorAdd_TraceLines(t *testing.T) {
	a := make([]uint32, 8)
	b := make([]uint32, 8)

	var trace bytes.Buffer
	cfg := Config{Tasklets: 2, BlockSize: 16, MRAMSize: 1 << 16, Trace: &trace}
	u := loadUnit(t, cfg, a, b, len(a)*ElemBytes)
	require.NoError(t, u.Launch())

	assert.Contains(t, trace.String(), "tasklet_id = ")
}

func TestLaunch_TileOutOfRangeSurfacesError(t *testing.T) {
	u, err := NewUnit(0, Config{Tasklets: 4, BlockSize: 32, MRAMSize: 1 << 12})
	require.NoError(t, err)

	// The record claims more data than the unit's bulk memory holds,
	// so tasklets fail mid-stream at different tiles. The failures
	// must come back through Launch, not strand the group at a
	// barrier.
	u.WriteArguments(Arguments{
		Size:         1 << 13,
		TransferSize: 0,
		Kernel:       KernelVectorAdd,
	})

	done := make(chan error, 1)
	go func() { done <- u.Launch() }()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tasklet")
	case <-time.After(5 * time.Second):
		t.Fatal("launch did not return after a tasklet failure")
	}
}

func TestVectorAdd_TelemetryWriteCountsAsTraffic(t *testing.T) {
	// A zero-size partition streams no tiles, so the only launch-time
	// traffic is the telemetry record itself.
	a := make([]uint32, 8)
	b := make([]uint32, 8)
	u := loadUnit(t, Config{Tasklets: 2, BlockSize: 16, MRAMSize: 1 << 16}, a, b, 0)

	staged := u.BytesMoved()
	require.NoError(t, u.Launch())
	assert.Equal(t, staged+uint64(LogBytes), u.BytesMoved())
}

func TestLaunch_UnknownKernel(t *testing.T) {
	u, err := NewUnit(0, Config{Tasklets: 1, BlockSize: 16, MRAMSize: 1 << 16})
	require.NoError(t, err)

	u.WriteArguments(Arguments{Kernel: KernelID(99)})
	assert.Error(t, u.Launch())
}
