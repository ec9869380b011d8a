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

// Package client provides the shared Kubernetes client used by the crawler.
//
// The crawler talks to the API server for two things: resolving container
// metadata on the local node (inspect.KubeInspector) and reading the crawler
// configuration from a ConfigMap (config.ConfigMapSource). Both share one
// client, created on first use with sync.Once:
//
//	clientset, _, err := client.GetKubeClient()
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//
// Configuration is discovered from, in order:
//   - the KUBECONFIG environment variable
//   - ~/.kube/config
//   - the in-cluster service account (the usual case for a node DaemonSet)
//
// BuildKubeClient bypasses the shared client for an explicit kubeconfig.
//
// NodeName returns the name of the node the crawler runs on, taken from the
// NODE_NAME environment variable (set through the downward API) and falling
// back to the host name.
package client
