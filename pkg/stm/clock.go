package stm

import (
	"runtime"

	"go.uber.org/atomic"
)

// SeqClock is the global sequence clock every transaction coordinates
// through. Its parity encodes the system state: even means quiescent,
// odd means exactly one committer holds the exclusive write-back
// window. Every successful commit advances the clock by two, so the
// value only ever grows.
type SeqClock struct {
	ticks atomic.Uint64
}

func (c *SeqClock) Load() uint64 {
	return c.ticks.Load()
}

// WaitEven spins until the clock is quiescent and returns the value it
// observed. The wait is a busy loop; a committer's window only lasts
// for the duration of its write-back.
func (c *SeqClock) WaitEven() uint64 {
	for {
		v := c.ticks.Load()
		if v&1 == 0 {
			return v
		}
		runtime.Gosched()
	}
}

// TryAcquire attempts to open the exclusive write-back window by
// moving the clock from rv to rv+1. Failure means another commit or a
// clock advance happened since rv was observed.
func (c *SeqClock) TryAcquire(rv uint64) bool {
	return c.ticks.CompareAndSwap(rv, rv+1)
}

// Release closes the window that was opened at rv. Storing rv+2
// publishes the write-back and returns the clock to an even value in
// one step. The window is exclusive, so a plain store cannot race
// another committer.
func (c *SeqClock) Release(rv uint64) {
	c.ticks.Store(rv + 2)
}
