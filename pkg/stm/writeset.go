package stm

import "github.com/tidwall/btree"

// writeSet buffers the pending writes of one transaction, keyed by
// address. A later write to an address replaces the earlier one; the
// buffer is only ever flushed to the arena inside the exclusive
// commit window.
type writeSet struct {
	pairs btree.Map[int, int64]
}

func newWriteSet() *writeSet {
	return &writeSet{}
}

func (ws *writeSet) Set(addr int, value int64) {
	ws.pairs.Set(addr, value)
}

func (ws *writeSet) Get(addr int) (int64, bool) {
	return ws.pairs.Get(addr)
}

func (ws *writeSet) Len() int {
	return ws.pairs.Len()
}

// Scan visits every pending write in address order.
func (ws *writeSet) Scan(fn func(addr int, value int64) bool) {
	ws.pairs.Scan(fn)
}
