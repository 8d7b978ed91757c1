package stm

import "go.uber.org/atomic"

// Stats counts protocol events for one DB. All counters only grow for
// the life of the DB; the window counters exist so a test can verify
// that the write-back window is never held by two committers at once.
type Stats struct {
	begins          atomic.Uint64
	commits         atomic.Uint64
	readOnlyCommits atomic.Uint64
	aborts          atomic.Uint64

	windowDepth    atomic.Int64
	windowEntries  atomic.Uint64
	maxWindowDepth atomic.Int64
}

func (s *Stats) enterWindow() {
	depth := s.windowDepth.Inc()
	s.windowEntries.Inc()
	for {
		max := s.maxWindowDepth.Load()
		if depth <= max || s.maxWindowDepth.CompareAndSwap(max, depth) {
			return
		}
	}
}

func (s *Stats) exitWindow() {
	s.windowDepth.Dec()
}

func (s *Stats) Begins() uint64 {
	return s.begins.Load()
}

// Commits counts transactions that flushed a non-empty write set.
func (s *Stats) Commits() uint64 {
	return s.commits.Load()
}

// ReadOnlyCommits counts transactions that committed without ever
// contacting the clock.
func (s *Stats) ReadOnlyCommits() uint64 {
	return s.readOnlyCommits.Load()
}

func (s *Stats) Aborts() uint64 {
	return s.aborts.Load()
}

// WindowEntries counts acquisitions of the exclusive write-back
// window. It always equals Commits after the system quiesces.
func (s *Stats) WindowEntries() uint64 {
	return s.windowEntries.Load()
}

// MaxWindowDepth is the high-water mark of concurrent window holders.
// The protocol guarantees it never exceeds one.
func (s *Stats) MaxWindowDepth() int64 {
	return s.maxWindowDepth.Load()
}
