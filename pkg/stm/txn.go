package stm

import "runtime"

type readEntry struct {
	addr  int
	value int64
}

// Txn is one transaction attempt. It is owned by exactly one
// goroutine and must never be shared; all of its state is private
// until Commit flushes the write set inside the exclusive window.
//
// rv is the attempt's start version: an even clock value every read
// is validated against. Validation may move rv forward, but only to
// another even value the whole read set was confirmed under.
type Txn struct {
	update    bool
	rv        uint64
	db        *DB
	readSet   []readEntry
	writeSet  *writeSet
	discarded bool
}

// StartVersion reports the attempt's current validated clock
// snapshot.
func (txn *Txn) StartVersion() uint64 {
	return txn.rv
}

// Read returns the value of addr as of the transaction's snapshot.
// A pending write to addr from this same transaction shadows shared
// memory and is returned without touching the read set.
func (txn *Txn) Read(addr int) (int64, error) {
	if txn.discarded {
		return 0, TxnDiscardedErr
	}
	if value, ok := txn.writeSet.Get(addr); ok {
		return value, nil
	}

	value := txn.db.cells[addr].Load()
	// If the clock moved since rv, a commit completed and the value
	// just loaded may belong to a newer snapshot than the read set.
	// Revalidate until one clock reading covers both.
	for txn.rv != txn.db.clock.Load() {
		rv, err := txn.validate()
		if err != nil {
			return 0, err
		}
		txn.rv = rv
		value = txn.db.cells[addr].Load()
	}

	txn.readSet = append(txn.readSet, readEntry{addr: addr, value: value})
	return value, nil
}

// Write buffers addr -> value in the write set. The last write to an
// address wins; nothing reaches shared memory before Commit.
func (txn *Txn) Write(addr int, value int64) error {
	if txn.discarded {
		return TxnDiscardedErr
	}
	if !txn.update {
		return ReadOnlyTxnErr
	}
	txn.writeSet.Set(addr, value)
	return nil
}

// validate re-checks the whole read set against the arena and returns
// a clock value the scan was provably stable under. It aborts on the
// first mismatch: some other transaction committed a conflicting
// write.
func (txn *Txn) validate() (uint64, error) {
	for {
		temp := txn.db.clock.Load()
		if temp&1 != 0 {
			// A committer holds the write-back window. Never compare
			// against cells mid-flush.
			runtime.Gosched()
			continue
		}

		for _, entry := range txn.readSet {
			if txn.db.cells[entry.addr].Load() != entry.value {
				txn.db.stats.aborts.Inc()
				return 0, TxnAbortedErr
			}
		}

		if temp == txn.db.clock.Load() {
			return temp, nil
		}
		// A commit interleaved with the scan, so the comparisons were
		// against a moving target. Start the scan over.
	}
}

// Commit publishes the write set. A transaction that wrote nothing
// commits immediately: its reads were already validated on the fly
// and there is nothing to publish, so the clock is never contacted.
func (txn *Txn) Commit() error {
	if txn.discarded {
		return TxnDiscardedErr
	}
	if txn.writeSet.Len() == 0 {
		txn.db.stats.readOnlyCommits.Inc()
		return nil
	}

	for !txn.db.clock.TryAcquire(txn.rv) {
		rv, err := txn.validate()
		if err != nil {
			return err
		}
		txn.rv = rv
	}

	// The CAS succeeded: this goroutine owns the odd-clock window and
	// is the only writer until Release.
	txn.db.stats.enterWindow()
	txn.writeSet.Scan(func(addr int, value int64) bool {
		txn.db.cells[addr].Store(value)
		return true
	})
	txn.db.stats.exitWindow()
	txn.db.clock.Release(txn.rv)

	txn.db.stats.commits.Inc()
	return nil
}

// Discard drops the attempt's buffered state. It is safe to call
// after Commit and safe to call twice.
func (txn *Txn) Discard() {
	if txn.discarded { // Avoid a re-run.
		return
	}
	txn.discarded = true
	txn.readSet = nil
	txn.writeSet = nil
}
