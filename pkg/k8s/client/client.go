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

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// EnvNodeName holds the name of the node the crawler runs on.
const EnvNodeName = "NODE_NAME"

// Interface is an alias for kubernetes.Interface so tests can pass
// fake.NewClientset().
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns the shared client, creating it on first call.
// A failed creation is cached as well and returned to every caller.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	if clientErr != nil {
		return nil, nil, clientErr
	}
	return cachedClient, cachedConfig, nil
}

// ClientFor returns the shared client for an empty kubeconfig and a new
// client for an explicit one.
func ClientFor(kubeconfig string) (Interface, error) {
	if kubeconfig == "" {
		c, _, err := GetKubeClient()
		return c, err
	}
	c, _, err := BuildKubeClient(kubeconfig)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuildKubeClient creates a client from kubeconfig. An empty kubeconfig
// uses KUBECONFIG, then ~/.kube/config, then the in-cluster configuration.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	var config *rest.Config
	var err error

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")

		if kubeconfig == "" {
			kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err = os.Stat(kubeconfig); os.IsNotExist(err) {
				kubeconfig = ""
			}
		}
	}

	// Use InClusterConfig directly when no kubeconfig is available
	// This avoids the warning: "Neither --kubeconfig nor --master was specified"
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, config, nil
}

// NodeName returns the crawler's node name from NODE_NAME, or the host name.
func NodeName() (string, error) {
	if name := os.Getenv(EnvNodeName); name != "" {
		return name, nil
	}
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to determine node name: %w", err)
	}
	return name, nil
}
