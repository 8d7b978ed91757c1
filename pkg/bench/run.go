package bench

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tiny_stm/pkg/stm"
)

// Run executes the configured workload and returns its report.
func Run(conf *Config, logger *zap.Logger) (*Report, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	db := stm.New(conf.NumAccounts)
	db.Fill(conf.InitialBalance)
	totalBefore := db.Total()

	var metrics *Metrics
	if conf.MetricsAddr != "" {
		metrics = NewMetrics()
		registry := prometheus.NewRegistry()
		metrics.Register(registry)
		ServeMetrics(conf.MetricsAddr, registry, logger)
		logger.Info("serving metrics", zap.String("addr", conf.MetricsAddr))
	}

	barrier := NewBarrier(conf.NumThreads)
	workers := make([]*Worker, conf.NumThreads)
	errs := make([]error, conf.NumThreads)

	logger.Info("starting run",
		zap.Int("threads", conf.NumThreads),
		zap.Int("accounts", conf.NumAccounts),
		zap.Int("txns", conf.NumTxns),
	)

	var wg sync.WaitGroup
	wg.Add(conf.NumThreads)
	start := time.Now()
	for i := 0; i < conf.NumThreads; i++ {
		workers[i] = NewWorker(i, db, conf, barrier, metrics)
		go func(i int) {
			defer wg.Done()
			errs[i] = workers[i].Run()
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	report, err := NewReport(elapsed, totalBefore, db.Total(),
		db.Stats().Commits()+db.Stats().ReadOnlyCommits(), db.Stats().Aborts(), workers)
	if err != nil {
		return nil, err
	}
	logger.Info("run finished",
		zap.Duration("elapsed", report.Elapsed),
		zap.Uint64("commits", report.Commits),
		zap.Uint64("aborts", report.Aborts),
	)
	return report, nil
}
