package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_routed_message_count",
		Help: "Incoming messages by the route they took",
	}, []string{"route"})

	actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_moderation_action_count",
		Help: "Moderation actions carried out",
	}, []string{"action"})

	abortCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_moderation_abort_count",
		Help: "Violations whose handling stopped early",
	}, []string{"stage"})

	unpinCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_unpin_count",
		Help: "Scheduled unpins by outcome",
	}, []string{"outcome"})
)
