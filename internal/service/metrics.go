package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"carpool/internal/domain"
)

var (
	requestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "carpool_travel_request_ops_total", Help: "Travel request workflow operations"},
		[]string{"op", "result"},
	)
	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "carpool_user_lifecycle_ops_total", Help: "User lifecycle operations"},
		[]string{"op", "result"},
	)
	travelOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "carpool_travel_ops_total", Help: "Travel registry operations"},
		[]string{"op", "result"},
	)
)

func init() { prometheus.MustRegister(requestOps, lifecycleOps, travelOps) }

func observe(vec *prometheus.CounterVec, op string, err error) {
	vec.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return "not_found"
	case domain.KindUnauthenticated:
		return "denied"
	case domain.KindBadRequest:
		return "rejected"
	}
	return "error"
}
