// Copyright (C) 2026 vynaura
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for the handshake
// core, adapted from the teacher's internal/metrics/handshake.go: the
// same counter/histogram shapes, scoped to the peer-authentication
// namespace instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "peerauth"
	subsystem = "handshake"
)

// Registry is the Prometheus registerer all metrics in this package are
// registered with, at package initialisation. It is the default
// registerer; assigning a different one later does not move the metrics
// already registered.
var Registry = prometheus.DefaultRegisterer

var (
	// HandshakesStarted counts handshakes begun, labeled by role.
	HandshakesStarted = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "started_total",
		Help:      "Number of handshakes started, by role.",
	}, []string{"role"})

	// HandshakesCompleted counts handshakes that reached a terminal
	// state, labeled by outcome ("ok", the AuthError kind string, or
	// "error" for any other error).
	HandshakesCompleted = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "completed_total",
		Help:      "Number of handshakes that reached a terminal state, by outcome.",
	}, []string{"outcome"})

	// SuiteUsage counts which key-authentication suite was negotiated.
	SuiteUsage = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "suite_usage_total",
		Help:      "Number of handshakes completed per key-authentication suite.",
	}, []string{"suite"})

	// PhaseDuration records how long each phase took.
	PhaseDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "phase_duration_seconds",
		Help:      "Duration of each handshake phase.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"phase"})
)
