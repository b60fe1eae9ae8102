package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginSuccessesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_login_successes_total",
		Help: "Total number of successful logins.",
	})
	loginFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_login_failures_total",
		Help: "Total number of failed login attempts.",
	})
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_registrations_total",
		Help: "Total number of successful registrations.",
	})
	userUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_user_updates_total",
		Help: "Total number of successful user updates from the admin panel.",
	})
	userDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userhub_user_deletes_total",
		Help: "Total number of successful user deletions from the admin panel.",
	})
)
