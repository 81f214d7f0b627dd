package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solveTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindwell_solve_turns_total",
		Help: "Solve turns handled, labeled by the primary agent.",
	}, []string{"agent"})

	crisisBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindwell_crisis_blocks_total",
		Help: "Turns blocked by crisis detection.",
	})

	stepTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindwell_step_transitions_total",
		Help: "Session step transitions, labeled from/to.",
	}, []string{"from", "to"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindwell_rate_limited_total",
		Help: "Message posts rejected by the rate limiter.",
	})
)
