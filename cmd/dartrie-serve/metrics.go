package main

import "github.com/prometheus/client_golang/prometheus"

var (
	lookupRequestCountMetric = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dartrie_lookup_requests_total",
			Help: "Number of /lookup requests, by dictionary and outcome",
		},
		[]string{"dict", "outcome"},
	)

	dictionariesLoadedMetric = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dartrie_dictionaries_loaded",
			Help: "Number of dictionaries currently loaded",
		},
	)
)

func registerMetrics(r prometheus.Registerer) {
	r.MustRegister(lookupRequestCountMetric, dictionariesLoadedMetric)
}
