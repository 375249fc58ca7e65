package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the domain events worth watching on a dashboard.
var (
	PointsEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "detention_points_events_total",
		Help: "Points ledger entries recorded.",
	})

	VisitorRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "detention_visitor_registrations_total",
		Help: "Visitor registrations by outcome.",
	}, []string{"outcome"})

	FaceVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "detention_face_verifications_total",
		Help: "Visit-request face verifications by result.",
	}, []string{"result"})
)
