package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the refresh metrics on a registry of its own, so several
// recorders (one per test, one per organization) never collide.
type Recorder struct {
	registry *prometheus.Registry

	sourceRows      *prometheus.CounterVec
	sourceFetch     *prometheus.CounterVec
	ledgersRendered *prometheus.CounterVec
	degradations    *prometheus.CounterVec
	runDuration     prometheus.Gauge
	lastRunSuccess  prometheus.Gauge
	lastRunTime     prometheus.Gauge
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sourceRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_source_rows_total",
				Help: "Transactions extracted per source kind",
			},
			[]string{"source"},
		),
		sourceFetch: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_source_fetch_total",
				Help: "Source fetches by outcome (SUCCESS, ERROR, SKIPPED)",
			},
			[]string{"source", "status"},
		),
		ledgersRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_ledgers_rendered_total",
				Help: "Party ledger sheets written per category",
			},
			[]string{"category"},
		),
		degradations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_row_degradations_total",
				Help: "Source values replaced by a default, per source and field",
			},
			[]string{"source", "field"},
		),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_run_duration_seconds",
			Help: "Wall time of the last refresh",
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_last_run_success",
			Help: "1 when the last refresh succeeded, 0 otherwise",
		}),
		lastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_last_run_timestamp_seconds",
			Help: "Unix time the last refresh finished",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for testutil.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// SourceFetched records one fetch of a source kind.
func (r *Recorder) SourceFetched(source, status string, rows int) {
	if r == nil {
		return
	}
	r.sourceFetch.WithLabelValues(source, status).Inc()
	if rows > 0 {
		r.sourceRows.WithLabelValues(source).Add(float64(rows))
	}
}

// Degraded counts values that fell back to their default.
func (r *Recorder) Degraded(source, field string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.degradations.WithLabelValues(source, field).Add(float64(n))
}

// LedgerRendered counts one written party sheet.
func (r *Recorder) LedgerRendered(category string) {
	if r == nil {
		return
	}
	r.ledgersRendered.WithLabelValues(category).Inc()
}

// RunFinished records the outcome of a refresh.
func (r *Recorder) RunFinished(success bool, duration time.Duration, at time.Time) {
	if r == nil {
		return
	}
	r.runDuration.Set(duration.Seconds())
	if success {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	r.lastRunTime.Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
