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

package load

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/procfs"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const (
	// Feature is the feature key of the load crawlers.
	Feature = "load"

	ModuleContainer = "load.container"
	ModuleHost      = "load.host"
)

// ErrAvoidSetnsUnsupported is returned when a container crawl asks to avoid
// namespace switches; load can only be sampled from inside the container.
var ErrAvoidSetnsUnsupported = errors.New("load crawl without namespace switch is not supported")

func init() {
	plugin.MustRegister(ModuleContainer, func(s *plugin.Services) any {
		return &ContainerCrawler{
			Inspector: s.ContainerInspector(),
			Executor:  s.NamespaceExecutor(),
		}
	})
	plugin.MustRegister(ModuleHost, func(*plugin.Services) any {
		return &HostCrawler{}
	})
}

// ContainerCrawler samples the load average inside a container.
type ContainerCrawler struct {
	Inspector inspect.Inspector
	Executor  *namespace.Executor
	// ProcRoot is the procfs mount read inside the container; /proc when empty.
	ProcRoot string
}

// Feature returns "load".
func (c *ContainerCrawler) Feature() string { return Feature }

// Crawl inspects the container and samples its load inside all its namespaces.
func (c *ContainerCrawler) Crawl(ctx context.Context, containerID string, args plugin.Args) (iter.Seq[feature.Record], error) {
	slog.Debug("crawling container", "feature", Feature, "container", containerID)

	if args.Bool(plugin.ArgAvoidSetns) {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("cannot crawl %s of container %s", Feature, containerID), ErrAvoidSetnsUnsupported)
	}

	ct, err := c.Inspector.Inspect(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}

	procRoot := c.ProcRoot
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}

	load, err := namespace.Do(ctx, c.Executor, ct.PID, namespace.All, func() (feature.Load, error) {
		return sample(procRoot)
	})
	if err != nil {
		return nil, err
	}
	return feature.Of(record(load)), nil
}

// HostCrawler reads the host's load average.
type HostCrawler struct{}

// Feature returns "load".
func (h *HostCrawler) Feature() string { return Feature }

// Crawl reads <root_dir>/proc/loadavg, /proc/loadavg without root_dir.
func (h *HostCrawler) Crawl(ctx context.Context, _ string, args plugin.Args) (iter.Seq[feature.Record], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	procRoot := procfs.DefaultMountPoint
	if root, ok := args.String(plugin.ArgRootDir); ok && root != "" {
		procRoot = filepath.Join(root, "proc")
	}

	load, err := sample(procRoot)
	if err != nil {
		return nil, err
	}
	return feature.Of(record(load)), nil
}

func sample(procRoot string) (feature.Load, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return feature.Load{}, fmt.Errorf("failed to open procfs at %s: %w", procRoot, err)
	}
	avg, err := fs.LoadAvg()
	if err != nil {
		return feature.Load{}, fmt.Errorf("failed to read load average: %w", err)
	}
	return feature.Load{Shortterm: avg.Load1, Midterm: avg.Load5, Longterm: avg.Load15}, nil
}

func record(l feature.Load) feature.Record {
	return feature.Record{Key: Feature, Attributes: l, Type: feature.TypeLoad}
}
