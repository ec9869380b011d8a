// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package namespace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	switchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nscrawler_namespace_switch_total",
			Help: "Total number of namespace switch-execute-restore units",
		},
		[]string{"result"}, // success, not_found, denied, switch_error, routine_error, invalid
	)

	switchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nscrawler_namespace_switch_duration_seconds",
			Help:    "Time spent inside a namespace switch window, restore included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	switchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nscrawler_namespace_switches_in_flight",
			Help: "Number of worker threads currently inside a target's namespaces",
		},
	)

	restoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nscrawler_namespace_restore_failures_total",
			Help: "Worker threads discarded because their namespaces could not be restored",
		},
	)
)
