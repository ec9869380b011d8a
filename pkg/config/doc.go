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

// Package config loads the crawler configuration: the set of enabled
// crawlers and their argument overrides.
//
// The configuration is a YAML document keyed by crawler name:
//
//	crawlers:
//	  load: {}
//	  liberty:
//	    user: admin
//	    password: secret
//
// Every name under crawlers is enabled; its mapping holds the overrides
// passed to that crawler. Sources:
//
//   - FileSource: a local YAML file; a missing file is an empty configuration
//   - ConfigMapSource: the crawler.yaml key of a ConfigMap (cm://namespace/name)
//   - Static: a fixed in-memory configuration
//
// Parse selects the source from a URI.
package config
