// Package metrics exposes Prometheus collectors for report generation,
// downloads and ledger cleanup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download outcomes recorded in DownloadsTotal.
const (
	DownloadOK       = "ok"
	DownloadNotFound = "not_found"
	DownloadExpired  = "expired"
	DownloadGone     = "gone"
	DownloadError    = "error"
)

// Reports bundles the collectors used by the reporting service and worker.
type Reports struct {
	GeneratedTotal *prometheus.CounterVec
	FailedTotal    *prometheus.CounterVec
	RenderSeconds  *prometheus.HistogramVec
	FileBytes      *prometheus.HistogramVec
	DownloadsTotal *prometheus.CounterVec
	PurgedTotal    prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration, which tests use to get isolated collectors.
func New(reg prometheus.Registerer) *Reports {
	m := &Reports{
		GeneratedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Report files rendered and recorded in the ledger.",
		}, []string{"report_id", "format"}),
		FailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_failed_total",
			Help: "Report generations rejected or failed, by reason.",
		}, []string{"report_id", "reason"}),
		RenderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_render_seconds",
			Help:    "Time spent rendering a report payload into a document.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"report_id", "format"}),
		FileBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_file_bytes",
			Help:    "Size of rendered report files.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_downloads_total",
			Help: "Download attempts by outcome.",
		}, []string{"result"}),
		PurgedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_files_purged_total",
			Help: "Expired report files removed from storage and the ledger.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.GeneratedTotal, m.FailedTotal, m.RenderSeconds, m.FileBytes, m.DownloadsTotal, m.PurgedTotal)
	}
	return m
}
