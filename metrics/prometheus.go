package metrics

import "github.com/prometheus/client_golang/prometheus"

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of failed HTTP requests (4xx/5xx)",
	},
	[]string{"endpoint", "status", "method"},
)

var ProviderRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "esign_provider_requests_total",
		Help: "Total number of e-signature provider API calls",
	},
	[]string{"operation", "status"},
)

var ProviderRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "esign_provider_request_duration_seconds",
		Help:    "Time spent on e-signature provider API calls",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

var WebhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of inbound provider webhook events",
	},
	[]string{"outcome"},
)

var AnalysisTasksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_tasks_total",
		Help: "Total number of AI analysis task outcomes",
	},
	[]string{"model", "status"},
)

var AnalysisRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_retries_total",
		Help: "Total number of AI analysis retries",
	},
	[]string{"model"},
)

var AnalysisDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "analysis_duration_seconds",
		Help:    "Time taken by AI provider calls",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"model"},
)

var KafkaPublishFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_publish_failure_total",
		Help: "Total number of failed Kafka publishes",
	},
	[]string{"topic"},
)

var KafkaPublishSuccessTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_publish_success_total",
		Help: "Total number of successful Kafka publishes",
	},
	[]string{"topic"},
)

var KafkaSubscriberFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_subscriber_failure_total",
		Help: "Total number of failed Kafka reads",
	},
	[]string{"topic"},
)

var WebsocketConnections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Currently open websocket connections per group family",
	},
	[]string{"family"},
)

var HubEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hub_events_published_total",
		Help: "Total number of events published to the notification hub",
	},
	[]string{"event_type"},
)

// InitAPIMetrics registers the collectors used by the API server.
func InitAPIMetrics() {
	prometheus.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		HttpErrorsTotal,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		WebhookEventsTotal,
		AnalysisTasksTotal,
		KafkaPublishFailureTotal,
		KafkaPublishSuccessTotal,
		WebsocketConnections,
		HubEventsTotal,
	)
}

// InitWorkerMetrics registers the collectors used by the analysis worker.
func InitWorkerMetrics() {
	prometheus.MustRegister(
		AnalysisTasksTotal,
		AnalysisRetriesTotal,
		AnalysisDuration,
		KafkaPublishFailureTotal,
		KafkaPublishSuccessTotal,
		KafkaSubscriberFailureTotal,
		HubEventsTotal,
	)
}
