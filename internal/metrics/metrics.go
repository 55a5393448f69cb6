package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Batch metrics
	symbolsTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	rowsPersisted *prometheus.CounterVec
	lastRun       *prometheus.GaugeVec
	lastFailed    *prometheus.GaugeVec

	// Side-channel metrics
	archiveCopies *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec

	now func() time.Time
}

// NewRegistry creates a new metrics registry with all metrics registered.
// Runtime collectors are left out: the registry is exported as a textfile
// next to node_exporter's own process metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registry: reg,
		now:      time.Now,
	}

	r.symbolsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klineprompt_symbols_total",
			Help: "Total number of symbols processed",
		},
		[]string{"dataset", "status"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klineprompt_fetch_duration_seconds",
			Help:    "Per-symbol processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"dataset"},
	)
	r.rowsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klineprompt_rows_persisted_total",
			Help: "Total number of dataset rows written",
		},
		[]string{"dataset"},
	)
	r.lastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "klineprompt_batch_last_run_timestamp_seconds",
			Help: "Unix time the last batch of a dataset finished",
		},
		[]string{"dataset"},
	)
	r.lastFailed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "klineprompt_batch_last_run_failed_symbols",
			Help: "Number of symbols that failed in the last batch of a dataset",
		},
		[]string{"dataset"},
	)
	r.archiveCopies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klineprompt_archive_copies_total",
			Help: "Total number of files mirrored to the archive",
		},
		[]string{"status"},
	)
	r.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klineprompt_llm_tokens_total",
			Help: "Total number of LLM tokens used",
		},
		[]string{"provider", "direction"},
	)

	reg.MustRegister(r.symbolsTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.rowsPersisted)
	reg.MustRegister(r.lastRun)
	reg.MustRegister(r.lastFailed)
	reg.MustRegister(r.archiveCopies)
	reg.MustRegister(r.llmTokens)

	return r
}

// ObserveSymbol records one symbol's outcome.
func (r *Registry) ObserveSymbol(kind core.DatasetKind, ok bool, rows int, elapsed time.Duration) {
	dataset := string(kind)
	r.symbolsTotal.WithLabelValues(dataset, statusLabel(ok)).Inc()
	r.fetchDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
	if ok && rows > 0 {
		r.rowsPersisted.WithLabelValues(dataset).Add(float64(rows))
	}
}

// ObserveBatch records the completion of a batch.
func (r *Registry) ObserveBatch(kind core.DatasetKind, total, failed int) {
	dataset := string(kind)
	r.lastRun.WithLabelValues(dataset).Set(float64(r.now().Unix()))
	r.lastFailed.WithLabelValues(dataset).Set(float64(failed))
}

// RecordArchive records a mirror attempt.
func (r *Registry) RecordArchive(ok bool) {
	r.archiveCopies.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordTokens records LLM token usage.
func (r *Registry) RecordTokens(provider string, input, output int) {
	if input > 0 {
		r.llmTokens.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		r.llmTokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}

// FlushOptions selects where Flush exports to. Empty fields are skipped.
type FlushOptions struct {
	// Textfile is a path for node_exporter's textfile collector.
	Textfile string
	// Pushgateway is the Pushgateway base URL.
	Pushgateway string
	// Job is the Pushgateway job name.
	Job string
	// RunID groups pushed metrics by invocation.
	RunID string
}

// Flush exports the registry. Both targets are attempted; their errors are
// joined.
func (r *Registry) Flush(ctx context.Context, opts FlushOptions) error {
	var errs []error
	if opts.Textfile != "" {
		if err := prometheus.WriteToTextfile(opts.Textfile, r.Registry); err != nil {
			errs = append(errs, fmt.Errorf("writing textfile: %w", err))
		}
	}
	if opts.Pushgateway != "" {
		job := opts.Job
		if job == "" {
			job = "klineprompt"
		}
		p := push.New(opts.Pushgateway, job).Gatherer(r.Registry)
		if opts.RunID != "" {
			p = p.Grouping("run_id", opts.RunID)
		}
		if err := p.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pushing metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
