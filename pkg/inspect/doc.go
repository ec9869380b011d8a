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

// Package inspect resolves the runtime metadata of a container: its state,
// the PID that carries its namespaces, its declared ports and its labels.
//
// KubeInspector answers from the Kubernetes API for pods scheduled on the
// local node and resolves the PID by matching the container ID against the
// cgroup membership of host processes in procfs.
//
// Labels follow the container runtime conventions, so plugins written for
// plain container runtimes work unchanged:
//
//	io.kubernetes.pod.name, io.kubernetes.pod.namespace,
//	io.kubernetes.container.name, annotation.io.kubernetes.container.ports,
//	annotation.<pod annotation>, <pod label>
package inspect
