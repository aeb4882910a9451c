package tracker

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainwait_tracked_transactions",
		Help: "The number of transactions currently tracked.",
	})
	metricWaitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainwait_wait_requests_total",
		Help: "The total number of valid wait requests by requested condition.",
	}, []string{"condition"})
	metricWaitResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainwait_wait_responses_total",
		Help: "The total number of wait responses by HTTP status code.",
	}, []string{"code"})
	metricExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainwait_expired_transactions_total",
		Help: "The total number of tracked transactions reaped by expiration.",
	})
	metricBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainwait_blocks_observed_total",
		Help: "The total number of block events ingested by the tracker.",
	}, []string{"type"})
)

// countingCallback counts the terminal response status before handing it to
// the HTTP layer.
func countingCallback(cb Callback) Callback {
	return func(status int, body any) {
		metricWaitResponses.WithLabelValues(strconv.Itoa(status)).Inc()
		cb(status, body)
	}
}
