package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sheriff_verdict_count",
	Help: "Number of classification verdicts, by check and verdict kind",
}, []string{"check", "kind"})

var failOpenCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sheriff_fail_open_count",
	Help: "Number of classifications treated as safe because the backend or download failed",
}, []string{"check"})

var noticeFallbackCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sheriff_notice_fallback_count",
	Help: "Number of notices that used the fixed fallback template, by action kind",
}, []string{"action"})
