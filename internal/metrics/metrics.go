// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingestion pipeline.
//
// It exposes a narrow Backend interface (counters plus duration
// observations) behind a global, pluggable backend that defaults to a no-op
// implementation, so metric calls are always safe even when no real backend
// is configured. Concrete metric systems live in subpackages; the rest of
// the codebase depends only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage measures one pipeline stage: latency plus a success/failure
// counter. Stages are the coarse phases of a run (extract, ingest, dedup,
// mirror, report).
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("cnpj_stage_total", 1, lbls)
	backend.ObserveHistogram("cnpj_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given entity type and
// kind.
//
// Typical kinds mirror the run summary fields:
//   - "parsed"
//   - "skipped"
//   - "deduped"
//   - "written"
func RecordRows(entity, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("cnpj_rows_total", float64(delta), Labels{
		"entity": entity,
		"kind":   kind,
	})
}

// RecordArchives counts ZIP archives by outcome ("extracted" or "failed").
func RecordArchives(outcome string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("cnpj_archives_total", float64(delta), Labels{
		"outcome": outcome,
	})
}
