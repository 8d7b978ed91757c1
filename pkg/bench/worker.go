package bench

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"tiny_stm/pkg/stm"
)

// Worker runs its share of transfer transactions against the arena.
// Each worker owns its RNG so account picking never contends on a
// shared source.
type Worker struct {
	id      int
	db      *stm.DB
	conf    *Config
	rng     *rand.Rand
	barrier *Barrier
	metrics *Metrics // may be nil

	// Filled in by Run.
	Retries   uint64
	Latencies []float64 // nanoseconds per committed transaction
}

func NewWorker(id int, db *stm.DB, conf *Config, barrier *Barrier, metrics *Metrics) *Worker {
	return &Worker{
		id:      id,
		db:      db,
		conf:    conf,
		rng:     rand.New(rand.NewSource(int64(id) + 1)),
		barrier: barrier,
		metrics: metrics,
	}
}

// Run waits at the barrier, then executes the worker's share of
// transactions, retrying each one unconditionally until it commits.
func (w *Worker) Run() error {
	if w.metrics != nil {
		w.metrics.ActiveWorkers.Inc()
		defer w.metrics.ActiveWorkers.Dec()
	}
	w.barrier.Await()

	workload := w.conf.NumTxns / w.conf.NumThreads
	for i := 0; i < workload; i++ {
		start := time.Now()
		for {
			err := w.runTransfer()
			if err == nil {
				break
			}
			if errors.Is(err, stm.TxnAbortedErr) {
				// No backoff, no attempt limit: retry from a fresh
				// begin until the transaction wins.
				w.Retries++
				if w.metrics != nil {
					w.metrics.Retries.Inc()
				}
				continue
			}
			return errors.Wrapf(err, "worker %d", w.id)
		}
		if w.metrics != nil {
			w.metrics.Commits.Inc()
		}
		w.Latencies = append(w.Latencies, float64(time.Since(start).Nanoseconds()))
	}
	return nil
}

// runTransfer executes one transaction: a batch of transfers between
// random distinct account pairs. A source too poor to fund a transfer
// ends the batch early; whatever was buffered still commits.
func (w *Worker) runTransfer() error {
	txn := w.db.Begin()
	defer txn.Discard()

	for op := 0; op < w.conf.OpsPerTxn; op++ {
		src, dst := w.pickAccounts()

		from, err := txn.Read(src)
		if err != nil {
			return err
		}
		if from < w.conf.TransferAmount {
			break
		}
		to, err := txn.Read(dst)
		if err != nil {
			return err
		}

		_ = txn.Write(src, from-w.conf.TransferAmount)
		_ = txn.Write(dst, to+w.conf.TransferAmount)
	}
	return txn.Commit()
}

func (w *Worker) pickAccounts() (src, dst int) {
	src = w.rng.Intn(w.conf.NumAccounts)
	dst = w.rng.Intn(w.conf.NumAccounts)
	for dst == src {
		dst = w.rng.Intn(w.conf.NumAccounts)
	}
	return src, dst
}
