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
	"fmt"
	"slices"
	"sync"
)

// Factory creates a new plugin instance from the shared services. Each
// discovery creates fresh instances, so implementations may hold
// per-snapshot state.
type Factory func(s *Services) any

// Global table of module factories.
// Plugin packages register themselves via init() functions.
var (
	globalFactories = make(map[string]Factory)
	globalMu        sync.RWMutex
)

// Register registers a module factory globally.
// Returns an error if the module name is empty or already registered.
func Register(module string, factory Factory) error {
	if module == "" {
		return fmt.Errorf("plugin module name is required")
	}
	if factory == nil {
		return fmt.Errorf("plugin module %s has a nil factory", module)
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if _, exists := globalFactories[module]; exists {
		return fmt.Errorf("plugin module %s already registered", module)
	}

	globalFactories[module] = factory
	return nil
}

// MustRegister is a convenience function that panics on registration error.
// Use this in init() functions where registration must succeed.
func MustRegister(module string, factory Factory) {
	if err := Register(module, factory); err != nil {
		panic(err)
	}
}

// Modules returns the names of all registered modules, sorted.
func Modules() []string {
	globalMu.RLock()
	defer globalMu.RUnlock()

	names := make([]string, 0, len(globalFactories))
	for name := range globalFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupFactory(module string) (Factory, bool) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	f, ok := globalFactories[module]
	return f, ok
}

// unregister removes a module. Only used by tests.
func unregister(module string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	delete(globalFactories, module)
}
