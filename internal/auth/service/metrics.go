package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatehouse_auth_events_total",
	Help: "Authentication and credential lifecycle events by outcome.",
}, []string{"event", "outcome"})

func recordEvent(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	authEvents.WithLabelValues(event, outcome).Inc()
}
