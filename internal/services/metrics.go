package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var engagementToggles = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tieba",
		Name:      "engagement_toggles_total",
		Help:      "Like/favorite toggles by kind, target type and resulting state.",
	},
	[]string{"kind", "target", "state"},
)
