package hashapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashsharing_client",
			Name:      "http_attempts_total",
			Help:      "HTTP attempts sent to the hash sharing service, retries included.",
		},
		[]string{"method"},
	)

	httpResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashsharing_client",
			Name:      "http_responses_total",
			Help:      "Final responses per request after retries, by status code (0 for network failures).",
		},
		[]string{"method", "code"},
	)

	pagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hashsharing_client",
			Name:      "pages_fetched_total",
			Help:      "Entries pages fetched and decoded.",
		},
	)

	updatesDecodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashsharing_client",
			Name:      "updates_decoded_total",
			Help:      "Entry updates decoded from entries pages.",
		},
		[]string{"entry_type", "deleted"},
	)
)
