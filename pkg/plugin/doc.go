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

// Package plugin discovers, selects and caches collection plugins.
//
// A plugin is declared by a *.plugin manifest file placed in one of the
// plugin places (directories). The manifest names the plugin, its category
// and the compiled-in module implementing it:
//
//	name: load
//	category: container-crawler
//	module: load.container
//	description: Container load average
//	version: "1.0"
//
// Modules register a factory from an init function:
//
//	func init() {
//	    plugin.MustRegister("load.container", func(s *plugin.Services) any {
//	        return &ContainerCrawler{exec: s.NamespaceExecutor()}
//	    })
//	}
//
// Discovery (Discover) parses manifests, instantiates the referenced module
// and verifies the instance satisfies the capability of its category:
// Crawler for container-crawler, vm-crawler and host-crawler, Environment
// for environment. Invalid manifests are reported as *DiscoveryError values
// joined into one error while the remaining plugins are still returned.
//
// Selection (Select) filters discovered crawlers by the enabled names of the
// crawler configuration or by requested feature, and resolves each plugin's
// arguments with a fixed precedence:
//
//  1. per-plugin overrides from the crawler configuration
//  2. options keyed by the plugin's feature, for keys not set by an override
//  3. the avoid_setns and mountpoint (as root_dir) global options, when present
//
// Manager composes both behind per-audience caches. A cache is empty until
// first use, then served unchanged until an explicit Reload call replaces it.
//
// Usage:
//
//	m := plugin.NewManager(
//	    plugin.WithPlaces("/etc/nscrawler/plugins"),
//	    plugin.WithConfigSource(config.NewFileSource("/etc/nscrawler/crawler.yaml")),
//	)
//	selected, err := m.ContainerCrawlPlugins(ctx, []string{"load"})
//	for _, s := range selected {
//	    records, err := s.Crawler().Crawl(ctx, containerID, s.Args)
//	    ...
//	}
package plugin
