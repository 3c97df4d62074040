// Package metrics exposes prometheus instruments for the scoring engine,
// the community workflow and the HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "scoring",
			Name:      "scans_total",
			Help:      "Total number of scored messages by risk level",
		},
		[]string{"risk_level"},
	)

	scanScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scamshield",
			Subsystem: "scoring",
			Name:      "risk_score",
			Help:      "Distribution of clamped risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	communityReports = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "community",
			Name:      "reports_submitted_total",
			Help:      "Total number of community reports submitted",
		},
	)

	communityVotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "community",
			Name:      "votes_total",
			Help:      "Total number of votes cast by direction",
		},
		[]string{"direction"},
	)

	communityVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "community",
			Name:      "verifications_total",
			Help:      "Total number of report resolutions by decision",
		},
		[]string{"decision"},
	)

	blacklistUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "blacklist",
			Name:      "upserts_total",
			Help:      "Total number of blacklist upserts by origin",
		},
		[]string{"origin"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scamshield",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
)

func ObserveScan(level string, score int) {
	scansTotal.WithLabelValues(level).Inc()
	scanScore.Observe(float64(score))
}

func ReportSubmitted() {
	communityReports.Inc()
}

func VoteCast(direction string) {
	communityVotes.WithLabelValues(direction).Inc()
}

func ReportResolved(decision string) {
	communityVerifications.WithLabelValues(decision).Inc()
}

// BlacklistUpserted counts upserts; origin is "verification", "direct" or "seed"
func BlacklistUpserted(origin string) {
	blacklistUpserts.WithLabelValues(origin).Inc()
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
