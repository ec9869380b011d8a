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

package defaults

import "time"

// Crawl timeouts. The crawler core enforces none of these itself; they are the
// bounds the CLI places around a batch.
const (
	// CrawlBatchTimeout is the default upper bound for one crawl batch.
	CrawlBatchTimeout = 5 * time.Minute

	// ConfigLoadTimeout bounds reading the crawler configuration source.
	ConfigLoadTimeout = 30 * time.Second

	// InspectTimeout bounds a single container inspection.
	InspectTimeout = 10 * time.Second
)

// HTTP client timeouts for outbound application metric requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second
)
