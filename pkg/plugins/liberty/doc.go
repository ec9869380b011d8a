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

// Package liberty provides the container crawler for WebSphere Liberty
// application servers.
//
// The crawler applies to containers declaring port 9443, taken from the
// annotation.io.kubernetes.container.ports label when present and from the
// inspected container ports otherwise. It discovers the container's IPv4
// address inside its network namespace and reads the JvmStats and
// ThreadPoolStats MBeans through the Liberty JMX REST connector.
//
// Arguments:
//
//	user, password   REST connector credentials (default "user"/"password")
//	verify_tls       verify the server certificate (default false)
//
// A container without port 9443 yields no records. A container that
// declares the port but does not answer yields a *plugin.CollectionFailedError.
//
// Registered module: liberty.container.
package liberty
