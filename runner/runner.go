// Package runner moves data across the host/bulk-memory boundary and
// triggers execution: it stages the argument record and both input
// segments into every unit, launches all units synchronously, then
// retrieves telemetry records and the output segments.
package runner

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/amit-choudhari/memclave-prim-benchmarks/device"
	"github.com/amit-choudhari/memclave-prim-benchmarks/partitions"
)

// Runner owns a cluster of units and the layout that maps host
// buffers onto them. Buffers are passed in and out explicitly; the
// runner holds no pointers into host data between calls.
type Runner struct {
	Units  []*device.Unit
	Layout *partitions.Layout
}

// NewRunner allocates one unit per layout partition. Allocation
// failure is fatal to the run.
func NewRunner(layout *partitions.Layout, cfg device.Config) (*Runner, error) {
	if layout == nil {
		return nil, fmt.Errorf("nil layout")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	units := make([]*device.Unit, layout.NumUnits)
	for i := range units {
		u, err := device.NewUnit(i, cfg)
		if err != nil {
			return nil, fmt.Errorf("allocating unit %d: %w", i, err)
		}
		if 2*layout.TransferBytes() > u.TelemetryOffset() {
			return nil, fmt.Errorf("unit %d: segments of %d bytes do not fit below the telemetry region at %d",
				i, 2*layout.TransferBytes(), u.TelemetryOffset())
		}
		units[i] = u
	}
	return &Runner{Units: units, Layout: layout}, nil
}

// PushInput stages the argument record and both array segments into
// every unit: A at offset 0, B immediately after at the uniform
// transfer stride. Transfers to different units run concurrently.
func (r *Runner) PushInput(a, b []uint32) error {
	need := r.Layout.HostElems()
	if len(a) < need || len(b) < need {
		return fmt.Errorf("host buffers hold %d/%d elements, need %d (stride times unit count)",
			len(a), len(b), need)
	}

	stride := r.Layout.PerUnit
	transfer := r.Layout.TransferBytes()

	g := new(errgroup.Group)
	for i, u := range r.Units {
		i, u := i, u
		g.Go(func() error {
			u.WriteArguments(device.Arguments{
				Size:         uint32(r.Layout.SizeBytes(i)),
				TransferSize: uint32(transfer),
				Kernel:       device.KernelVectorAdd,
			})

			seg := make([]byte, transfer)
			device.EncodeWords(seg, a[stride*i:stride*i+stride])
			if err := u.CopyTo(0, seg); err != nil {
				return fmt.Errorf("pushing A segment: %w", err)
			}
			device.EncodeWords(seg, b[stride*i:stride*i+stride])
			if err := u.CopyTo(transfer, seg); err != nil {
				return fmt.Errorf("pushing B segment: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Launch runs the kernel on every unit and blocks until all have
// completed. Any launch failure is fatal; there is no retry and no
// timeout.
func (r *Runner) Launch() error {
	g := new(errgroup.Group)
	for _, u := range r.Units {
		g.Go(u.Launch)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("launch failed: %w", err)
	}
	return nil
}

// PullTelemetry retrieves the fixed-size telemetry record from every
// unit's reserved offset. Records are returned as read; validity is
// judged by the caller through TelemetryRecord.Valid.
func (r *Runner) PullTelemetry() ([]device.TelemetryRecord, error) {
	recs := make([]device.TelemetryRecord, len(r.Units))
	g := new(errgroup.Group)
	for i, u := range r.Units {
		i, u := i, u
		g.Go(func() error {
			buf := make([]byte, device.LogBytes)
			if err := u.CopyFrom(u.TelemetryOffset(), buf); err != nil {
				return fmt.Errorf("pulling telemetry from unit %d: %w", i, err)
			}
			recs[i] = device.DecodeTelemetry(buf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// MaxCycles reduces telemetry records to the maximum cycle count,
// skipping any record that fails the magic check. A unit that crashed
// or never launched leaves stale memory and is simply excluded.
func MaxCycles(recs []device.TelemetryRecord) uint64 {
	var mx uint64
	for _, rec := range recs {
		if !rec.Valid() {
			continue
		}
		if rec.MaxCycles > mx {
			mx = rec.MaxCycles
		}
	}
	return mx
}

// PullOutput retrieves each unit's B segment, now holding the sum,
// into out at the unit's partition offset.
func (r *Runner) PullOutput(out []uint32) error {
	need := r.Layout.HostElems()
	if len(out) < need {
		return fmt.Errorf("output buffer holds %d elements, need %d", len(out), need)
	}

	stride := r.Layout.PerUnit
	transfer := r.Layout.TransferBytes()

	g := new(errgroup.Group)
	for i, u := range r.Units {
		i, u := i, u
		g.Go(func() error {
			seg := make([]byte, transfer)
			if err := u.CopyFrom(transfer, seg); err != nil {
				return fmt.Errorf("pulling output from unit %d: %w", i, err)
			}
			device.DecodeWords(out[stride*i:stride*i+stride], seg)
			return nil
		})
	}
	return g.Wait()
}
