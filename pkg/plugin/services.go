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

package plugin

import (
	"sync"

	"github.com/NVIDIA/nscrawler/pkg/defaults"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
)

// Services carries the collaborators plugins are built with. Nil fields are
// replaced by process-wide defaults on first use.
type Services struct {
	// Inspector resolves container metadata and PIDs.
	Inspector inspect.Inspector
	// Executor runs collection routines inside target namespaces.
	Executor *namespace.Executor
}

var (
	defaultOnce     sync.Once
	defaultExecutor *namespace.Executor
	defaultInspect  inspect.Inspector
)

func initDefaults() {
	defaultOnce.Do(func() {
		defaultExecutor = namespace.NewExecutor(namespace.WithParallelism(defaults.CrawlParallelism))
		defaultInspect = &inspect.KubeInspector{}
	})
}

// NamespaceExecutor returns the configured executor or the shared default.
func (s *Services) NamespaceExecutor() *namespace.Executor {
	if s != nil && s.Executor != nil {
		return s.Executor
	}
	initDefaults()
	return defaultExecutor
}

// ContainerInspector returns the configured inspector or the shared default.
func (s *Services) ContainerInspector() inspect.Inspector {
	if s != nil && s.Inspector != nil {
		return s.Inspector
	}
	initDefaults()
	return defaultInspect
}
