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

// Package osrelease provides the os feature crawlers, which identify the
// distribution from its os-release file.
//
// The host crawler reads /etc/os-release under root_dir (the host root when
// unset). The container crawler joins only the container's mount namespace
// and reads the file there; with avoid_setns and root_dir it reads the
// container root filesystem mounted at root_dir instead.
//
// Per the freedesktop.org convention, /usr/lib/os-release is read when
// /etc/os-release does not exist.
//
// Registered modules: osrelease.container, osrelease.host.
package osrelease

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"

	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/parser"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const (
	// Feature is the feature key of the os crawlers.
	Feature = "os"

	ModuleContainer = "osrelease.container"
	ModuleHost      = "osrelease.host"

	// RecordKey is the key of the single record produced.
	RecordKey = "linux"
)

var (
	pathPrimary  = "/etc/os-release"
	pathFallback = "/usr/lib/os-release"
)

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

// HostCrawler reads the host's os-release.
type HostCrawler struct{}

// Feature returns "os".
func (h *HostCrawler) Feature() string { return Feature }

// Crawl reads the os-release file under root_dir.
func (h *HostCrawler) Crawl(ctx context.Context, _ string, args plugin.Args) (iter.Seq[feature.Record], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := read(args.StringOr(plugin.ArgRootDir, ""))
	if err != nil {
		return nil, err
	}
	return feature.Of(record(rel)), nil
}

// ContainerCrawler reads a container's os-release.
type ContainerCrawler struct {
	Inspector inspect.Inspector
	Executor  *namespace.Executor
}

// Feature returns "os".
func (c *ContainerCrawler) Feature() string { return Feature }

// Crawl reads the os-release file as seen by the container.
func (c *ContainerCrawler) Crawl(ctx context.Context, containerID string, args plugin.Args) (iter.Seq[feature.Record], error) {
	if root, ok := args.String(plugin.ArgRootDir); ok && root != "" && args.Bool(plugin.ArgAvoidSetns) {
		rel, err := read(root)
		if err != nil {
			return nil, err
		}
		return feature.Of(record(rel)), nil
	}

	ct, err := c.Inspector.Inspect(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}

	rel, err := namespace.Do(ctx, c.Executor, ct.PID, namespace.NewSet(namespace.Mount), func() (feature.OSRelease, error) {
		return read("")
	})
	if err != nil {
		return nil, err
	}
	return feature.Of(record(rel)), nil
}

func read(root string) (feature.OSRelease, error) {
	p := parser.New(
		parser.WithRoot(root),
		parser.WithValueTrim(`"'`),
		parser.WithSkipEmptyValues(true),
	)

	path := pathPrimary
	if _, err := os.Stat(p.Path(path)); errors.Is(err, fs.ErrNotExist) {
		path = pathFallback
	}

	kv, err := p.Map(path)
	if err != nil {
		return feature.OSRelease{}, fmt.Errorf("failed to read os release: %w", err)
	}
	return feature.OSRelease{
		Name:       kv["NAME"],
		ID:         kv["ID"],
		VersionID:  kv["VERSION_ID"],
		PrettyName: kv["PRETTY_NAME"],
	}, nil
}

func record(rel feature.OSRelease) feature.Record {
	return feature.Record{Key: RecordKey, Attributes: rel, Type: feature.TypeOS}
}
