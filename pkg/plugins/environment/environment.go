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

// Package environment provides the runtime environment plugins. An
// environment names the namespace under which a container's features are
// reported.
//
//	cloudsight   the container name, or its ID when unnamed
//	kubernetes   <pod namespace>/<pod name>/<container name>
//
// Registered modules: environment.cloudsight, environment.kubernetes.
package environment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const (
	NameCloudsight = "cloudsight"
	NameKubernetes = "kubernetes"

	ModuleCloudsight = "environment.cloudsight"
	ModuleKubernetes = "environment.kubernetes"
)

func init() {
	plugin.MustRegister(ModuleCloudsight, func(s *plugin.Services) any {
		return &Cloudsight{Inspector: s.ContainerInspector()}
	})
	plugin.MustRegister(ModuleKubernetes, func(s *plugin.Services) any {
		return &Kubernetes{Inspector: s.ContainerInspector()}
	})
}

// Cloudsight names containers by their runtime name.
type Cloudsight struct {
	Inspector inspect.Inspector
}

// EnvironmentName returns "cloudsight".
func (c *Cloudsight) EnvironmentName() string { return NameCloudsight }

// ContainerNamespace returns the container name, falling back to its ID.
func (c *Cloudsight) ContainerNamespace(ctx context.Context, containerID string, _ plugin.Args) (string, error) {
	ct, err := lookup(ctx, c.Inspector, containerID)
	if err != nil {
		return "", err
	}
	if ct.Name != "" {
		return ct.Name, nil
	}
	return ct.ID, nil
}

// Kubernetes names containers by pod coordinates.
type Kubernetes struct {
	Inspector inspect.Inspector
}

// EnvironmentName returns "kubernetes".
func (k *Kubernetes) EnvironmentName() string { return NameKubernetes }

// ContainerNamespace returns <pod namespace>/<pod name>/<container name>.
func (k *Kubernetes) ContainerNamespace(ctx context.Context, containerID string, _ plugin.Args) (string, error) {
	ct, err := lookup(ctx, k.Inspector, containerID)
	if err != nil {
		return "", err
	}

	parts := []string{
		ct.Labels[inspect.LabelPodNamespace],
		ct.Labels[inspect.LabelPodName],
		ct.Labels[inspect.LabelContainerName],
	}
	for _, p := range parts {
		if p == "" {
			return "", cerrors.WrapWithContext(cerrors.ErrCodeNotFound,
				"container is not managed by kubernetes", inspect.ErrNotFound,
				map[string]any{"container": containerID})
		}
	}
	return strings.Join(parts, "/"), nil
}

// lookup inspects the container. Stopped containers are still named.
func lookup(ctx context.Context, in inspect.Inspector, id string) (*inspect.Container, error) {
	if in == nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "no container inspector")
	}
	ct, err := in.Inspect(ctx, id)
	if err != nil && !(ct != nil && errors.Is(err, inspect.ErrNotRunning)) {
		return nil, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}
	return ct, nil
}
