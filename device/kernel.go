package device

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// KernelID selects the device routine to run. The argument record
// carries it as a raw 32-bit field, so new kernels extend the dispatch
// table without changing the record layout.
type KernelID uint32

const (
	// KernelVectorAdd streams two input segments through the on-chip
	// tile buffers and overwrites the second segment with the sum.
	KernelVectorAdd KernelID = 0
)

type kernelFunc func(u *Unit) error

var kernels = map[KernelID]kernelFunc{
	KernelVectorAdd: runVectorAdd,
}

// runVectorAdd spawns the unit's tasklets and blocks until all of
// them have drained and the telemetry record is written.
func runVectorAdd(u *Unit) error {
	nr := u.tasklets
	bar := NewBarrier(nr)
	tlCycles := make([]uint64, nr)
	errs := make([]error, nr)

	var wg sync.WaitGroup
	for id := 0; id < nr; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs[id] = u.vectorAddTasklet(id, bar, tlCycles)
		}(id)
	}
	wg.Wait()

	for id, err := range errs {
		if err != nil {
			return fmt.Errorf("tasklet %d: %w", id, err)
		}
	}
	return nil
}

// vectorAddTasklet is the per-tasklet body of the vector addition
// kernel. Tasklet 0 resets the arena before the init barrier and
// reduces the shared cycle array after the drain barrier; every other
// tasklet only writes its own slot of tlCycles.
func (u *Unit) vectorAddTasklet(id int, bar *Barrier, tlCycles []uint64) error {
	if id == 0 {
		u.arena.Reset()
	}
	bar.Wait()

	if u.trace != nil {
		fmt.Fprintf(u.trace, "tasklet_id = %d\n", id)
	}

	var ctr Counter
	ctr.Reset()
	start := ctr.Cycles()
	err := u.streamTiles(id, &ctr)
	end := ctr.Cycles()

	// A failed tasklet keeps arriving at the barriers; bailing out
	// here would strand the rest of the group at the drain barrier
	// and the launch would never return.
	bar.Wait()
	tlCycles[id] = ctr.Cycles()
	bar.Wait()

	if id == 0 {
		var mx uint64
		for _, c := range tlCycles {
			if c > mx {
				mx = c
			}
		}
		rec := TelemetryRecord{
			Magic:     LogMagic,
			MaxCycles: mx,
			Start:     start,
			End:       end,
			Tasklets:  uint64(u.tasklets),
			Done:      1,
		}
		buf := make([]byte, LogBytes)
		rec.encode(buf)
		if werr := u.mramWrite(buf, u.TelemetryOffset(), &ctr); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// streamTiles carves the tasklet's tile buffers out of the arena and
// streams its share of the partition. Interleaved stride: tasklet t
// owns tiles t, t+nr, t+2*nr, ... A zero-size partition yields an
// empty stream.
func (u *Unit) streamTiles(id int, ctr *Counter) error {
	size := int(u.args.Size)
	baseA := 0
	baseB := int(u.args.TransferSize)

	cacheA, err := u.arena.Alloc(u.blockSize)
	if err != nil {
		return err
	}
	cacheB, err := u.arena.Alloc(u.blockSize)
	if err != nil {
		return err
	}

	for off := id * u.blockSize; off < size; off += u.blockSize * u.tasklets {
		n := u.blockSize
		if off+n > size {
			n = size - off
		}
		if err := u.mramRead(baseA+off, cacheA[:n], ctr); err != nil {
			return err
		}
		if err := u.mramRead(baseB+off, cacheB[:n], ctr); err != nil {
			return err
		}
		vectorAdd(cacheB[:n], cacheA[:n])
		ctr.AddCompute(n / ElemBytes)
		if err := u.mramWrite(cacheB[:n], baseB+off, ctr); err != nil {
			return err
		}
	}
	return nil
}

// vectorAdd adds each element of a into b in place, with native
// fixed-width wraparound.
func vectorAdd(b, a []byte) {
	for i := 0; i+ElemBytes <= len(b); i += ElemBytes {
		sum := binary.LittleEndian.Uint32(b[i:]) + binary.LittleEndian.Uint32(a[i:])
		binary.LittleEndian.PutUint32(b[i:], sum)
	}
}
