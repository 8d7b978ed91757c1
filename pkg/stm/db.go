package stm

import (
	"errors"

	"go.uber.org/atomic"
)

// DB is a fixed-size arena of integer cells guarded by one global
// sequence clock. There are no per-cell locks and no per-cell
// metadata; all coordination goes through the clock. Cells are only
// ever mutated by the single committer holding the clock's odd
// window.
type DB struct {
	clock SeqClock
	cells []atomic.Int64
	stats Stats
}

func New(numCells int) *DB {
	if numCells <= 0 {
		panic("stm: numCells must be positive")
	}
	return &DB{cells: make([]atomic.Int64, numCells)}
}

func (db *DB) NumCells() int {
	return len(db.cells)
}

// Load reads a cell outside of any transaction. It is meant for
// setup and post-run inspection, not for transactional code.
func (db *DB) Load(addr int) int64 {
	return db.cells[addr].Load()
}

// Fill stores value into every cell. Call it before workers start;
// it does not coordinate with in-flight transactions.
func (db *DB) Fill(value int64) {
	for i := range db.cells {
		db.cells[i].Store(value)
	}
}

// Total sums every cell. Under the transfer workloads this system is
// built for, the total is invariant across any set of commits.
func (db *DB) Total() int64 {
	var total int64
	for i := range db.cells {
		total += db.cells[i].Load()
	}
	return total
}

func (db *DB) Stats() *Stats {
	return &db.stats
}

// ClockValue exposes the current clock reading, for inspection only.
func (db *DB) ClockValue() uint64 {
	return db.clock.Load()
}

// Begin starts a new read-write transaction attempt. It never fails:
// it spins until the clock is quiescent and snapshots that value as
// the attempt's start version.
func (db *DB) Begin() *Txn {
	db.stats.begins.Inc()
	return &Txn{
		update:   true,
		db:       db,
		rv:       db.clock.WaitEven(),
		writeSet: newWriteSet(),
	}
}

func (db *DB) beginReadOnly() *Txn {
	db.stats.begins.Inc()
	return &Txn{
		db:       db,
		rv:       db.clock.WaitEven(),
		writeSet: newWriteSet(),
	}
}

// Update runs fn in a read-write transaction and commits it,
// retrying from a fresh Begin whenever the attempt aborts. Retries
// are unconditional: no backoff, no attempt limit. Any error other
// than an abort is returned to the caller as-is.
func (db *DB) Update(fn func(txn *Txn) error) error {
	for {
		txn := db.Begin()
		err := fn(txn)
		if err == nil {
			err = txn.Commit()
		}
		txn.Discard()

		if errors.Is(err, TxnAbortedErr) {
			continue
		}
		return err
	}
}

// View runs fn in a read-only transaction. Reads are validated on the
// fly, so a read-only attempt can still abort and be retried, but it
// never contacts the clock to commit.
func (db *DB) View(fn func(txn *Txn) error) error {
	for {
		txn := db.beginReadOnly()
		err := fn(txn)
		txn.Discard()

		if errors.Is(err, TxnAbortedErr) {
			continue
		}
		return err
	}
}
