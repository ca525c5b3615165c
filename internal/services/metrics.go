package futurecash

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("futurecash")

// метрики
var (
	callbackResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futurecash_offer_callbacks_total",
			Help: "Кол-во колбэков провайдеров по результату",
		},
		[]string{"result"},
	)

	pointsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futurecash_points_credited_total",
			Help: "Начисленные баллы по источнику",
		},
		[]string{"source"},
	)

	pointsDebited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futurecash_points_debited_total",
			Help: "Списанные баллы по источнику",
		},
		[]string{"source"},
	)

	heldApproved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "futurecash_held_sweep_approved_total",
			Help: "Кол-во выполнений, подтвержденных после холда",
		},
	)
)
