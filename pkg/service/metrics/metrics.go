// Energy Sign Core
// Copyright (c) 2026 The Energy Sign Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Energy Sign Core.
//
// Energy Sign Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Energy Sign Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Energy Sign Core.  If not, see <http://www.gnu.org/licenses/>.


// Package metrics exposes sign activity in the Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "energysign"

// Metrics owns its registry so several services can run in one process.
type Metrics struct {
	registry     *prometheus.Registry
	displayed    *prometheus.CounterVec
	inputs       *prometheus.CounterVec
	renderErrors prometheus.Counter
}

// New registers the counters and the gauges read from snapshot on every
// scrape.
func New(snapshot func() queue.Snapshot) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		displayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_displayed_total",
			Help:      "Messages sent to the display, by kind.",
		}, []string{"kind"}),
		inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_total",
			Help:      "Inputs applied to the engine, by kind.",
		}, []string{"kind"}),
		renderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Messages the display failed to render.",
		}),
	}

	gauge := func(name, help string, value func(queue.Snapshot) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(snapshot()))
		})
	}

	m.registry.MustRegister(
		m.displayed,
		m.inputs,
		m.renderErrors,
		gauge("rotation_messages", "Messages in the rotation.",
			func(s queue.Snapshot) int { return len(s.Rotation) }),
		gauge("queued_messages", "Interstitials waiting to be shown.",
			func(s queue.Snapshot) int { return s.Queued }),
		gauge("advertisements", "Advertisement templates loaded.",
			func(s queue.Snapshot) int { return s.Ads }),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Displayed(kind string) {
	m.displayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) Input(kind string) {
	m.inputs.WithLabelValues(kind).Inc()
}

func (m *Metrics) RenderError() {
	m.renderErrors.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
