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
	"log/slog"

	"k8s.io/apimachinery/pkg/util/sets"
)

// SelectionConfig is the configuration of one selection pass. It is built
// fresh on every reload and not mutated afterwards.
type SelectionConfig struct {
	// Enabled holds the names of the plugins turned on explicitly.
	Enabled sets.Set[string]
	// Overrides holds per-plugin argument overrides, keyed by plugin name.
	Overrides map[string]Args
	// Options holds global options. An entry keyed by a feature whose value
	// is a mapping provides defaults for every plugin of that feature.
	Options Args
}

// Selected is a plugin chosen to run together with its resolved arguments.
type Selected struct {
	Descriptor *Descriptor
	Args       Args
}

// Name returns the plugin name.
func (s Selected) Name() string {
	return s.Descriptor.Name()
}

// Crawler returns the plugin implementation.
func (s Selected) Crawler() Crawler {
	c, _ := s.Descriptor.Crawler()
	return c
}

// Select returns the crawler plugins that should run: those enabled by name
// or providing one of the requested features. Discovery order is preserved.
// The result is never nil.
func Select(descriptors []*Descriptor, cfg SelectionConfig, features []string) []Selected {
	requested := sets.New(features...)
	out := make([]Selected, 0, len(descriptors))

	for _, d := range descriptors {
		if _, ok := d.Crawler(); !ok {
			continue
		}
		if !cfg.Enabled.Has(d.Name()) && !requested.Has(d.Feature()) {
			continue
		}
		out = append(out, Selected{Descriptor: d, Args: ResolveArgs(d, cfg)})
	}
	return out
}

// ResolveArgs computes the arguments of one plugin. Later steps only add to
// or replace what earlier steps set:
//
//  1. a copy of the plugin's overrides; a string avoid_setns becomes a bool
//  2. keys of the feature-keyed option mapping not already set
//  3. avoid_setns when the global option is true, and mountpoint as root_dir
//
// A global option that is absent is logged and never injects a key.
func ResolveArgs(d *Descriptor, cfg SelectionConfig) Args {
	args := cfg.Overrides[d.Name()].Clone()
	if v, ok := args[ArgAvoidSetns]; ok {
		args[ArgAvoidSetns] = toBool(v)
	}

	if f := d.Feature(); f != "" {
		if opts, ok := asArgs(cfg.Options[f]); ok {
			for k, v := range opts {
				if _, set := args[k]; !set {
					args[k] = v
				}
			}
		}
	}

	if v, ok := cfg.Options[ArgAvoidSetns]; ok {
		if toBool(v) {
			args[ArgAvoidSetns] = true
		}
	} else {
		slog.Warn("global option not set", "option", ArgAvoidSetns, "plugin", d.Name())
	}

	if v, ok := cfg.Options[OptionMountpoint]; ok {
		args[ArgRootDir] = v
	} else {
		slog.Warn("global option not set", "option", OptionMountpoint, "plugin", d.Name())
	}

	return args
}
