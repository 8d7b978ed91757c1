package bench

import (
	"runtime"

	"go.uber.org/atomic"
)

// Barrier is a lightweight single-use rendezvous point: every
// participant spins until all n have arrived, so worker start times
// line up before the run is timed.
type Barrier struct {
	n       int32
	arrived atomic.Int32
}

func NewBarrier(n int) *Barrier {
	return &Barrier{n: int32(n)}
}

// Await busy-waits until all participants have arrived.
func (b *Barrier) Await() {
	b.arrived.Inc()
	for b.arrived.Load() < b.n {
		runtime.Gosched()
	}
}
