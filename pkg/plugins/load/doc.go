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

// Package load provides the load average crawlers.
//
// The container crawler samples /proc/loadavg from inside every namespace of
// the container (namespace.All); the host crawler reads it from the host, or
// from <root_dir>/proc when the mountpoint option is set.
//
// Both yield a single record:
//
//	{Key: "load", Attributes: feature.Load{...}, Type: "load"}
//
// Registered modules: load.container, load.host.
package load
