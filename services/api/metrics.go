package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated = "created"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

type metrics struct {
	submissions *prometheus.CounterVec
	eggs        prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmquick_quick_submissions_total",
			Help: "Quick form submissions by form and outcome.",
		}, []string{"form", "outcome"}),
		eggs: factory.NewCounter(prometheus.CounterOpts{
			Name: "farmquick_harvested_eggs_total",
			Help: "Eggs recorded through harvest quick forms.",
		}),
	}
}
