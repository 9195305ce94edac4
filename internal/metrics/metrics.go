package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_orders_created_total",
		Help: "Total number of orders persisted, single submissions and imports combined.",
	})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_order_imports_total",
		Help: "Total number of finished order imports by result.",
	},
		[]string{"result"},
	)

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_order_import_duration_seconds",
		Help:    "Wall time of a single import from decode to cleanup.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	ImportIDRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_order_id_retries_total",
		Help: "Total number of writes retried after an order id collision.",
	})

	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_order_status_transitions_total",
		Help: "Total number of order status updates by target status.",
	},
		[]string{"status"},
	)

	StockUpdateFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_stock_update_failures_total",
		Help: "Total number of product stock decrements that failed.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_order_cache_items",
		Help: "Current number of items in the active order cache.",
	})

	OutboxMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_outbox_messages_total",
		Help: "Total number of outbox messages handed to the producer by result.",
	},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_http_requests_total",
		Help: "Total number of HTTP requests.",
	},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"route"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
