package bench

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Report summarizes a finished run.
type Report struct {
	Elapsed     time.Duration
	TotalBefore int64
	TotalAfter  int64
	Commits     uint64
	Aborts      uint64
	Retries     uint64
	MeanLatency time.Duration
	P50Latency  time.Duration
	P99Latency  time.Duration
}

// NewReport computes latency aggregates over every worker's samples.
func NewReport(elapsed time.Duration, totalBefore, totalAfter int64, commits, aborts uint64, workers []*Worker) (*Report, error) {
	report := &Report{
		Elapsed:     elapsed,
		TotalBefore: totalBefore,
		TotalAfter:  totalAfter,
		Commits:     commits,
		Aborts:      aborts,
	}

	var latencies []float64
	for _, w := range workers {
		report.Retries += w.Retries
		latencies = append(latencies, w.Latencies...)
	}
	if len(latencies) == 0 {
		return report, nil
	}

	mean, err := stats.Mean(latencies)
	if err != nil {
		return nil, errors.Wrap(err, "latency mean")
	}
	p50, err := stats.Percentile(latencies, 50)
	if err != nil {
		return nil, errors.Wrap(err, "latency p50")
	}
	p99, err := stats.Percentile(latencies, 99)
	if err != nil {
		return nil, errors.Wrap(err, "latency p99")
	}
	report.MeanLatency = time.Duration(mean)
	report.P50Latency = time.Duration(p50)
	report.P99Latency = time.Duration(p99)
	return report, nil
}

// Conserved reports whether the run moved money without creating or
// destroying any.
func (r *Report) Conserved() bool {
	return r.TotalBefore == r.TotalAfter
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"elapsed=%v commits=%d aborts=%d retries=%d latency(mean=%v p50=%v p99=%v) total(before=%d after=%d conserved=%t)",
		r.Elapsed, r.Commits, r.Aborts, r.Retries,
		r.MeanLatency, r.P50Latency, r.P99Latency,
		r.TotalBefore, r.TotalAfter, r.Conserved(),
	)
}
