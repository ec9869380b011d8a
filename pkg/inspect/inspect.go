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

package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Label keys set on every inspected container.
const (
	LabelPodName       = "io.kubernetes.pod.name"
	LabelPodNamespace  = "io.kubernetes.pod.namespace"
	LabelContainerName = "io.kubernetes.container.name"
	LabelPorts         = "annotation.io.kubernetes.container.ports"
	LabelImage         = "io.kubernetes.container.image"

	// AnnotationPrefix prefixes pod annotations copied into labels.
	AnnotationPrefix = "annotation."
)

var (
	// ErrNotFound is returned when no container matches the identifier.
	ErrNotFound = errors.New("container not found")

	// ErrNotRunning is returned for a container that exists but is not running.
	ErrNotRunning = errors.New("container not running")
)

// State is the lifecycle state of a container.
type State string

const (
	StateRunning State = "running"
	StateWaiting State = "waiting"
	StateExited  State = "exited"
	StateUnknown State = "unknown"
)

// Port is a port declared by a container.
type Port struct {
	ContainerPort int    `json:"containerPort" yaml:"containerPort"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// Container is the inspected state of one container.
type Container struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name" yaml:"name"`
	Image  string            `json:"image,omitempty" yaml:"image,omitempty"`
	State  State             `json:"state" yaml:"state"`
	PID    int               `json:"pid" yaml:"pid"`
	Ports  []Port            `json:"ports,omitempty" yaml:"ports,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Running reports whether the container is running.
func (c *Container) Running() bool {
	return c != nil && c.State == StateRunning
}

// PortNumbers returns the declared container ports.
func (c *Container) PortNumbers() []int {
	out := make([]int, 0, len(c.Ports))
	for _, p := range c.Ports {
		out = append(out, p.ContainerPort)
	}
	return out
}

// Inspector returns the current state of a container.
type Inspector interface {
	Inspect(ctx context.Context, id string) (*Container, error)
}

// ParsePorts parses a JSON list of ports given either as port objects
// ([{"containerPort": 9443}]) or as raw numbers ([9443, "8080"]).
func ParsePorts(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to parse ports %q: %w", raw, err)
	}

	ports := make([]int, 0, len(items))
	for _, item := range items {
		p, err := portOf(item)
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func portOf(item any) (int, error) {
	switch v := item.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid port %v: not a whole number", v)
		}
		return checkPort(int(v))
	case string:
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid port %q: %w", v, err)
		}
		return checkPort(p)
	case map[string]any:
		for _, key := range []string{"containerPort", "ContainerPort", "container_port"} {
			if pv, ok := v[key]; ok {
				return portOf(pv)
			}
		}
		return 0, fmt.Errorf("port object without containerPort: %v", v)
	default:
		return 0, fmt.Errorf("invalid port value %v", item)
	}
}

func checkPort(p int) (int, error) {
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("invalid port %d: out of range", p)
	}
	return p, nil
}

// Static is an Inspector over a fixed set of containers keyed by ID.
type Static map[string]*Container

// Inspect returns a copy of the container registered under id.
func (s Static) Inspect(_ context.Context, id string) (*Container, error) {
	c, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *c
	if !cp.Running() {
		return &cp, fmt.Errorf("%w: %s is %s", ErrNotRunning, id, cp.State)
	}
	return &cp, nil
}
