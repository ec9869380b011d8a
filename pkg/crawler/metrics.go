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

package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crawlTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nscrawler_crawl_total",
			Help: "Total number of plugin crawls by outcome",
		},
		[]string{"outcome"}, // collected, not_applicable, failed, fatal
	)

	crawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nscrawler_crawl_duration_seconds",
			Help:    "Time taken by a single plugin crawl",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"feature"},
	)

	batchRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nscrawler_batch_records",
			Help: "Number of records in the last crawl batch",
		},
	)
)
