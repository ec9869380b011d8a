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

// Descriptor is a discovered plugin. It is immutable and owned by the
// Snapshot that produced it.
type Descriptor struct {
	name        string
	category    Category
	feature     string
	module      string
	path        string
	version     string
	description string
	impl        any
}

// Name returns the plugin name, unique within its category.
func (d *Descriptor) Name() string { return d.name }

// Category returns the plugin category.
func (d *Descriptor) Category() Category { return d.category }

// Feature returns the feature key of a crawler plugin, or "" for environments.
func (d *Descriptor) Feature() string { return d.feature }

// Module returns the name of the compiled-in implementation.
func (d *Descriptor) Module() string { return d.module }

// Path returns the manifest file the plugin was discovered from.
func (d *Descriptor) Path() string { return d.path }

// Version returns the manifest version.
func (d *Descriptor) Version() string { return d.version }

// Description returns the manifest description.
func (d *Descriptor) Description() string { return d.description }

// Crawler returns the implementation of a crawler plugin.
func (d *Descriptor) Crawler() (Crawler, bool) {
	c, ok := d.impl.(Crawler)
	return c, ok
}

// Environment returns the implementation of an environment plugin.
func (d *Descriptor) Environment() (Environment, bool) {
	e, ok := d.impl.(Environment)
	return e, ok
}

// Snapshot is the immutable result of one discovery.
type Snapshot struct {
	descriptors []*Descriptor
}

// Descriptors returns the discovered plugins in discovery order. The returned
// slice is a copy.
func (s *Snapshot) Descriptors() []*Descriptor {
	if s == nil {
		return nil
	}
	out := make([]*Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// Len returns the number of discovered plugins.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.descriptors)
}

// Lookup finds a plugin by category and name.
func (s *Snapshot) Lookup(category Category, name string) (*Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	for _, d := range s.descriptors {
		if d.category == category && d.name == name {
			return d, true
		}
	}
	return nil, false
}

// ByCategory returns the plugins of one category in discovery order.
func (s *Snapshot) ByCategory(category Category) []*Descriptor {
	if s == nil {
		return nil
	}
	var out []*Descriptor
	for _, d := range s.descriptors {
		if d.category == category {
			out = append(out, d)
		}
	}
	return out
}
