package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTeardownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_session_teardowns_total",
		Help: "Total number of sessions torn down due to expired or rejected tokens.",
	})
)
