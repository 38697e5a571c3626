//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ddd "github.com/storefront/checkout"
)

// Metrics 业务指标，每个实例使用独立的 registry，便于测试
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	events     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "checkout",
				Name:      "operations_total",
				Help:      "Total number of checkout operations by result kind",
			},
			[]string{"operation", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "checkout",
				Name:      "operation_duration_ms",
				Help:      "Duration of checkout operations in ms",
				Buckets:   []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
			},
			[]string{"operation"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "checkout",
				Name:      "domain_events_total",
				Help:      "Total number of handled domain events",
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) Observe(operation string, start time.Time, err error) {
	m.operations.WithLabelValues(operation, ddd.Kind(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

func (m *Metrics) ObserveEvent(t ddd.EventType) {
	m.events.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
