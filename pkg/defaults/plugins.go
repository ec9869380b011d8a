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

package defaults

// Plugin discovery and selection defaults.
var (
	// PluginPlaces are the directories searched for *.plugin manifests.
	PluginPlaces = []string{"/etc/nscrawler/plugins"}

	// AccessFeatures is the feature set used when a plugin list is first
	// accessed without explicit features.
	AccessFeatures = []string{"package", "os", "process", "file", "config"}

	// ReloadFeatures is the feature set used by an explicit reload without
	// explicit features.
	ReloadFeatures = []string{"os", "cpu"}
)

const (
	// Environment is the runtime environment plugin used when none is named.
	Environment = "cloudsight"

	// ConfigPath is the crawler configuration file read when none is given.
	ConfigPath = "/etc/nscrawler/crawler.yaml"

	// CrawlParallelism bounds concurrent crawls and namespace switches.
	CrawlParallelism = 4
)
