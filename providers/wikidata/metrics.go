package wikidata

import "github.com/prometheus/client_golang/prometheus"

var (
	queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidata_queries_total",
		Help: "Anzahl der Wikidata-Queries nach Ergebnis.",
	}, []string{"outcome"})

	retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidata_query_retries_total",
		Help: "Anzahl der Wiederholungen nach Fehlerart.",
	}, []string{"kind"})

	queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikidata_query_duration_seconds",
		Help:    "Dauer einzelner Upstream-Aufrufe.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
	})
)

func init() {
	prometheus.MustRegister(queriesTotal, retriesTotal, queryDuration)
}
