// Package metrics declares the service's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestAccepted counts device events appended to the ledger.
	IngestAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendlog_ingest_accepted_total",
		Help: "Device events appended to the attendance ledger.",
	})

	// IngestRejected counts ingest requests turned away, by reason.
	IngestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendlog_ingest_rejected_total",
		Help: "Device events rejected before reaching the ledger.",
	}, []string{"reason"})

	// VoiceUploads counts stored voice samples, by kind.
	VoiceUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendlog_voice_uploads_total",
		Help: "Voice samples written to the sample store.",
	}, []string{"kind"})
)
