// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ECall traffic. All methods are nil-safe so the gateway can
// run without a metrics backend.
type Metrics struct {
	ecalls *prometheus.CounterVec
	faults *prometheus.CounterVec
}

// NewMetrics registers the gateway metrics with the given factory. A nil
// factory disables metrics.
func NewMetrics(factory *promauto.Factory, namespace string) *Metrics {
	if factory == nil {
		return nil
	}
	return &Metrics{
		ecalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ecalls_total",
				Help:      "Number of ECall invocations by call and result.",
			},
			[]string{"call", "result"},
		),
		faults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ecall_faults_total",
				Help:      "Number of internal faults contained at the ECall boundary.",
			},
			[]string{"call"},
		),
	}
}

func (m *Metrics) observeCall(call string, status int32) {
	if m == nil {
		return
	}
	result := "ok"
	if status < 0 {
		result = "error"
	}
	m.ecalls.WithLabelValues(call, result).Inc()
}

func (m *Metrics) observeFault(call string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(call).Inc()
}
