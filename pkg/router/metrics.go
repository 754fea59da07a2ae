// SPDX-License-Identifier: MPL-2.0

package router

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	materializations *prometheus.CounterVec
	disposals        *prometheus.CounterVec
	unknownRoutes    prometheus.Counter
	activeEntries    prometheus.Gauge
	duration         *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		materializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skeleton_router_materializations_total",
				Help: "Number of container materializations by node kind and result.",
			},
			[]string{"kind", "result"},
		),
		disposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skeleton_router_disposals_total",
				Help: "Number of disposed containers by node kind.",
			},
			[]string{"kind"},
		),
		unknownRoutes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "skeleton_router_unknown_routes_total",
				Help: "Number of navigations to routes absent from the route table.",
			},
		),
		activeEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "skeleton_router_active_entries",
				Help: "Number of active navigation entries.",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skeleton_router_materialization_duration_seconds",
				Help:    "Time taken to materialize a container.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{
		m.materializations,
		m.disposals,
		m.unknownRoutes,
		m.activeEntries,
		m.duration,
	} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
