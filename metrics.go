package graphene

import (
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flanksource/graphene/types"
)

var log = logger.GetLogger("graphene")

var (
	aggregationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graphene_aggregations_total",
		Help: "Number of completed aggregation passes",
	}, []string{"kind"})

	aggregationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphene_aggregation_duration_seconds",
		Help:    "Duration of aggregation passes",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"kind"})

	aggregationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graphene_aggregation_errors_total",
		Help: "Number of aggregation passes aborted by an extractor",
	}, []string{"kind"})
)

func init() {
	for _, c := range []prometheus.Collector{aggregationsTotal, aggregationDuration, aggregationErrors} {
		if err := prometheus.Register(c); err != nil {
			log.Warnf("error registering metric: %v", err)
		}
	}
}

func observe(kind types.Kind, start time.Time, err error) {
	if err != nil {
		aggregationErrors.WithLabelValues(string(kind)).Inc()
		return
	}
	aggregationsTotal.WithLabelValues(string(kind)).Inc()
	aggregationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
