package neighborhood

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/fuzzyflock/spatial"
)

// DefaultSlots is the fixed number of neighbour slots per agent in an
// offload result.
const DefaultSlots = 16

// emptySlot pads unused result slots.
const emptySlot = -1

// Batch is the input to one device dispatch: a snapshot of the agents
// taken at Frame, so the host can keep moving them while the device
// works.
type Batch struct {
	Frame  int
	Agents []spatial.Body
	Slots  int
}

// Readback is the future for one dispatch. Result holds Slots entries
// per agent, padded with -1, and is valid once Done reports true.
type Readback struct {
	Frame  int
	Slots  int
	Result []int32

	done chan struct{}
}

// NewReadback creates a pending readback for a batch.
func NewReadback(b Batch) *Readback {
	return &Readback{
		Frame:  b.Frame,
		Slots:  b.Slots,
		Result: make([]int32, len(b.Agents)*b.Slots),
		done:   make(chan struct{}),
	}
}

// Complete marks the readback done. Call once.
func (r *Readback) Complete() {
	close(r.done)
}

// Done reports whether the result is available without blocking.
func (r *Readback) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the readback completes or ctx ends.
func (r *Readback) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Device runs neighbour searches asynchronously.
type Device interface {
	Dispatch(b Batch) *Readback
}

// CPUDevice emulates an accelerator with worker goroutines. Each dispatch
// builds its own octree over the snapshot and writes fixed-slot results.
type CPUDevice struct {
	workers int
	depth   int
	bucket  int
}

// NewCPUDevice creates a device with the given worker count and tree
// shape.
func NewCPUDevice(workers, depth, bucket int) *CPUDevice {
	if workers < 1 {
		workers = 1
	}
	return &CPUDevice{workers: workers, depth: depth, bucket: bucket}
}

func (d *CPUDevice) Dispatch(b Batch) *Readback {
	rb := NewReadback(b)
	go func() {
		defer rb.Complete()
		agents := make([]spatial.Agent, len(b.Agents))
		for i := range b.Agents {
			agents[i] = b.Agents[i]
		}
		tree := spatial.New(spatial.BoundsOf(agents), d.depth, d.bucket)
		tree.Build(agents)

		var g errgroup.Group
		g.SetLimit(d.workers)
		chunk := max(1, (len(agents)+d.workers-1)/d.workers)
		for start := 0; start < len(agents); start += chunk {
			end := min(start+chunk, len(agents))
			g.Go(func() error {
				var scratch []int
				for i := start; i < end; i++ {
					scratch = tree.Neighbors(agents, i, spatial.ModeFull, scratch[:0])
					writeSlots(rb.Result[i*b.Slots:(i+1)*b.Slots], scratch)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return rb
}

// writeSlots copies up to len(slots) neighbours and pads the rest.
func writeSlots(slots []int32, ids []int) {
	n := copy32(slots, ids)
	for k := n; k < len(slots); k++ {
		slots[k] = emptySlot
	}
}

func copy32(dst []int32, src []int) int {
	n := min(len(dst), len(src))
	for k := 0; k < n; k++ {
		dst[k] = int32(src[k])
	}
	return n
}

// Offload serves neighbour lists computed by a Device. Results arrive at
// least latency frames after dispatch, so lists are always stale relative
// to the current frame. Only one readback is in flight at a time; a
// readback that never completes leaves the last applied lists in place.
type Offload struct {
	device  Device
	slots   int
	latency int
	logger  *slog.Logger

	pending *Readback
	applied int
	frame   int
	skipped int
	held    int
	lists   lists
}

// NewOffload wraps device. slots bounds the neighbours kept per agent;
// latency is the minimum number of frames between dispatch and use.
func NewOffload(device Device, slots, latency int, logger *slog.Logger) *Offload {
	if slots < 1 {
		slots = DefaultSlots
	}
	if latency < 1 {
		latency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Offload{
		device:  device,
		slots:   slots,
		latency: latency,
		logger:  logger,
		applied: -1,
	}
}

func (o *Offload) Update(frame int, agents []spatial.Agent) {
	if frame < o.frame || (o.pending != nil && frame < o.pending.Frame) {
		o.rewind(frame)
	}
	o.frame = frame
	if o.pending != nil && o.pending.Done() && frame-o.pending.Frame >= o.latency {
		o.apply(o.pending, len(agents))
		o.pending = nil
	}
	if o.pending != nil {
		if o.pending.Done() {
			o.held++
			o.logger.Debug("offload readback held for latency",
				"frame", frame,
				"pending_frame", o.pending.Frame,
			)
		} else {
			o.skipped++
			o.logger.Debug("offload dispatch skipped, readback pending",
				"frame", frame,
				"pending_frame", o.pending.Frame,
			)
		}
		return
	}

	// The device keeps the snapshot until it completes.
	snap := make([]spatial.Body, len(agents))
	for i, a := range agents {
		snap[i] = spatial.Body{Pos: a.Position(), Dir: a.Direction(), Sense: a.Perception()}
	}
	o.pending = o.device.Dispatch(Batch{Frame: frame, Agents: snap, Slots: o.slots})
}

// rewind drops state from frames after frame. A readback still running
// on the device is abandoned and lists stay empty until the next one
// lands.
func (o *Offload) rewind(frame int) {
	o.logger.Info("offload rewound",
		"frame", frame,
		"previous_frame", o.frame,
	)
	o.pending = nil
	o.applied = -1
	o.lists = o.lists[:0]
}

// apply unpacks a finished readback. Agents added since the dispatch get
// empty lists; ids beyond the current population are dropped.
func (o *Offload) apply(rb *Readback, n int) {
	o.lists.resize(n)
	for i := 0; i < n; i++ {
		dst := o.lists[i][:0]
		if (i+1)*rb.Slots <= len(rb.Result) {
			for _, id := range rb.Result[i*rb.Slots : (i+1)*rb.Slots] {
				if id == emptySlot || int(id) >= n {
					continue
				}
				dst = append(dst, int(id))
			}
		}
		o.lists[i] = dst
	}
	o.applied = rb.Frame
}

func (o *Offload) Neighbors(i int) []int { return o.lists.get(i) }

func (o *Offload) Mode() Mode { return ModeOffload }

// Pending reports whether a readback is in flight.
func (o *Offload) Pending() bool { return o.pending != nil }

// Staleness returns how many frames old the served lists are, or -1 if
// nothing has been applied yet.
func (o *Offload) Staleness() int {
	if o.applied < 0 {
		return -1
	}
	return o.frame - o.applied
}

// Skipped counts dispatches dropped because the device had not finished
// the pending readback.
func (o *Offload) Skipped() int { return o.skipped }

// Held counts dispatches dropped because a finished readback was still
// inside the latency window.
func (o *Offload) Held() int { return o.held }
