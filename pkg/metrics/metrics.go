// Package metrics 定义批处理与在线服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 批处理
	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_batch_runs_total",
			Help: "Total number of batch runs by outcome",
		},
		[]string{"outcome"}, // success, data_unavailable, cache_unavailable, error
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprec_batch_duration_seconds",
			Help:    "Duration of a full batch run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	ModelTrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprec_model_train_duration_seconds",
			Help:    "Duration of latent factor model training in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	UsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_batch_users_total",
			Help: "Users processed by the batch job",
		},
		[]string{"result"}, // cached, empty
	)

	RecallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_recall_errors_total",
			Help: "Candidate source failures",
		},
		[]string{"source"},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_candidates_filtered_total",
			Help: "Candidates removed by filters",
		},
		[]string{"filter"},
	)

	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shoprec_pipeline_node_duration_seconds",
			Help:    "Per-user pipeline node duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"node", "kind"},
	)

	IngestRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_ingest_rejected_total",
			Help: "Source records rejected during ingestion",
		},
		[]string{"collection"},
	)

	// 在线服务
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shoprec_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_cache_lookups_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	ExplanationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_explanation_requests_total",
			Help: "Explanation generator calls by result",
		},
		[]string{"result"}, // ok, fallback
	)

	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_feedback_events_total",
			Help: "Impression feedback events by result",
		},
		[]string{"result"}, // sent, error
	)
)
