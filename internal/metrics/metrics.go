package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the document lifecycle. Registered on the default registry
// and served by promhttp on /metrics.
var (
	DocumentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_documents_created_total",
		Help: "Documents created, by document type.",
	}, []string{"type"})

	Conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_conversions_total",
		Help: "Document conversions performed, by kind.",
	}, []string{"kind"})

	OverDeliveryRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_over_delivery_rejections_total",
		Help: "Delivery requests rejected for exceeding remaining quantity.",
	})

	IllegalTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_illegal_transitions_total",
		Help: "Status changes rejected by the state machine.",
	})
)
