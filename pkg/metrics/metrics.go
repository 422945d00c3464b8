package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "tests_created_total", Help: "Number of tests materialized by reconciliation."},
	)
	RevisionsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "revisions_appended_total", Help: "Number of new document revisions written."},
	)
	BlobsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "blobs_deduplicated_total", Help: "Number of blob writes satisfied by an existing checksum."},
	)
	SessionsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "sessions_completed_total", Help: "Number of sessions transitioned to Completed."},
	)
	DeviceConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "device_conflicts_total", Help: "Number of updates rejected by the device lock."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "equiptest", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(TestsCreated)
	reg.MustRegister(RevisionsAppended)
	reg.MustRegister(BlobsDeduplicated)
	reg.MustRegister(SessionsCompleted)
	reg.MustRegister(DeviceConflicts)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
