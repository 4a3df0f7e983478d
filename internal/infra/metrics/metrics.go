package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuoteLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricewatch_quote_lookups_total", Help: "Upstream quote lookups by result"},
		[]string{"venue", "result"},
	)
	PassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricewatch_passes_total", Help: "Evaluation passes by outcome"},
		[]string{"outcome"},
	)
	PassSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pricewatch_pass_skipped_total", Help: "Ticks skipped because a pass was still in flight"},
	)
	TriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricewatch_triggers_total", Help: "Recorded alert crossings"},
		[]string{"venue", "condition"},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricewatch_notifications_total", Help: "Notification deliveries by surface and result"},
		[]string{"surface", "result"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pricewatch_active_sessions", Help: "Live polling sessions"},
	)
)

func init() {
	prometheus.MustRegister(QuoteLookupsTotal, PassesTotal, PassSkippedTotal, TriggersTotal, NotificationsTotal, ActiveSessions)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
