package tms

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reevaluations counts belief re-evaluations performed during propagation.
	reevaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "truthkeeper_reevaluations_total",
		Help: "Belief re-evaluations performed during propagation, by engine",
	}, []string{"engine"})

	// cyclesDetected counts re-entries caught by the JTMS cycle guard.
	cyclesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthkeeper_jtms_cycles_detected_total",
		Help: "Propagation re-entries contained by marking beliefs non-monotonic",
	})

	// candidatesRejected counts ATMS candidate environments that were not accepted.
	candidatesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "truthkeeper_atms_candidates_rejected_total",
		Help: "Candidate environments rejected during label update, by reason",
	}, []string{"reason"})

	// environmentsAdded counts environments accepted into a label.
	environmentsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthkeeper_atms_environments_added_total",
		Help: "Environments accepted into belief labels",
	})

	// nogoodsRegistered counts environments promoted to nogoods.
	nogoodsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthkeeper_atms_nogoods_total",
		Help: "Environments promoted to nogoods",
	})
)

const (
	rejectRedundant = "redundant"
	rejectNogood    = "nogood"
	rejectBlocked   = "blocked"
)
