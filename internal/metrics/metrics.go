package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	once     sync.Once

	submitLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchbook_submit_latency_seconds",
		Help:    "Latency of order submission including matching, in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_orders_submitted_total",
			Help: "Total number of orders accepted by the book.",
		},
		[]string{"symbol", "side"},
	)
	ordersRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_orders_rejected_total",
		Help: "Total number of order submissions rejected by validation.",
	})
	ordersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_orders_cancelled_total",
		Help: "Total number of successful order cancellations.",
	})
	tradesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_trades_executed_total",
			Help: "Total number of trades executed.",
		},
		[]string{"symbol"},
	)
)

// Init registers metrics with the registry once.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			submitLatency,
			ordersSubmitted,
			ordersRejected,
			ordersCancelled,
			tradesExecuted,
		)
	})
}

// Handler exposes the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveSubmitLatency records the duration of one submission.
func ObserveSubmitLatency(d time.Duration) {
	Init()
	submitLatency.Observe(d.Seconds())
}

// IncOrdersSubmitted increments the accepted-order counter.
func IncOrdersSubmitted(symbol, side string) {
	Init()
	ordersSubmitted.WithLabelValues(symbol, side).Inc()
}

// IncOrdersRejected increments the rejected-submission counter.
func IncOrdersRejected() {
	Init()
	ordersRejected.Inc()
}

// IncOrdersCancelled increments the cancellation counter.
func IncOrdersCancelled() {
	Init()
	ordersCancelled.Inc()
}

// AddTradesExecuted adds n to the trade counter for a symbol.
func AddTradesExecuted(symbol string, n int) {
	Init()
	if n <= 0 {
		return
	}
	tradesExecuted.WithLabelValues(symbol).Add(float64(n))
}
