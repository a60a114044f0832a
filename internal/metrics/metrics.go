package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfeditor",
			Name:      "mutations_total",
			Help:      "Total document mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	mutationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfeditor",
			Name:      "mutation_duration_seconds",
			Help:      "Duration of document mutations by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	documentsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfeditor",
			Name:      "documents_open",
			Help:      "Number of documents currently open in the session",
		},
	)

	thumbnailsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfeditor",
			Name:      "thumbnails_rendered_total",
			Help:      "Total page thumbnails rendered",
		},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfeditor",
			Name:      "uploads_total",
			Help:      "Total document uploads by result (ok, rejected, failed)",
		},
		[]string{"result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(mutationsTotal, mutationDuration, documentsOpen, thumbnailsTotal, uploadsTotal)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveMutation(op, result string, dur time.Duration) {
	mutationsTotal.WithLabelValues(op, result).Inc()
	mutationDuration.WithLabelValues(op).Observe(dur.Seconds())
}

func SetDocumentsOpen(n int)  { documentsOpen.Set(float64(n)) }
func AddThumbnails(n int)     { thumbnailsTotal.Add(float64(n)) }
func IncUpload(result string) { uploadsTotal.WithLabelValues(result).Inc() }
