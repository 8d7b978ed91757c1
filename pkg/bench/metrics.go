package bench

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics exposes run progress to prometheus.
type Metrics struct {
	Commits       prometheus.Counter
	Retries       prometheus.Counter
	ActiveWorkers prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinystm",
			Name:      "commits_total",
			Help:      "Committed transactions.",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinystm",
			Name:      "retries_total",
			Help:      "Aborted transaction attempts that were retried.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tinystm",
			Name:      "active_workers",
			Help:      "Workers currently running transactions.",
		}),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(m.Commits, m.Retries, m.ActiveWorkers)
}

// ServeMetrics exposes reg on addr for the remainder of the process.
func ServeMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
