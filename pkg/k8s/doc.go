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

// Package k8s groups the Kubernetes integration used by the crawler.
//
// The client sub-package builds the clientset used to read the crawler
// ConfigMap and to resolve container identities through pod status:
//
//	cs, err := client.ClientFor(kubeconfig)
//	if err != nil {
//	    return err
//	}
//	insp := &inspect.KubeInspector{Client: cs, ProcRoot: "/proc"}
//
// GetKubeClient returns a process-wide clientset initialized once. ClientFor
// returns it when no explicit kubeconfig is given and builds a dedicated
// client otherwise.
package k8s
