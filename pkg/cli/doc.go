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

// Package cli implements the nscrawler command line.
//
// # Commands
//
// crawl - Crawl containers or the host once:
//
//	nscrawler crawl [--mode container|vm|host] [--target ID]... [--feature NAME]...
//	    [--output FILE] [--format yaml|json|table] [--metrics-file FILE]
//
// Runs the selected plugins against each target and writes a CrawlResult
// holding one Frame per target. Container IDs are looked up among the pods
// scheduled on this node (NODE_NAME, else the host name).
//
// plugins - List selected plugins:
//
//	nscrawler plugins [--audience container|vm|host] [--feature NAME]... [--reload]
//	nscrawler plugins --modules
//
// Shows the plugins a crawl would run and the arguments each would receive
// after the crawler configuration and global options are merged.
//
// # Plugin Flags
//
// Both commands accept:
//
//	--plugin-places DIR   directories holding *.plugin manifests (default /etc/nscrawler/plugins)
//	--config URI          crawler.yaml path or cm://namespace/name
//	--environment NAME    runtime environment plugin (default cloudsight)
//	--mountpoint DIR      root filesystem location, passed to plugins as root_dir
//	--avoid-setns         ask plugins not to switch namespaces
//	--option K=V          global option; FEATURE.K=V applies to one feature only
//
// # Environment Variables
//
//	LOG_LEVEL, NSCRAWLER_LOG_LEVEL   logging verbosity (debug, info, warn, error)
//	NSCRAWLER_CONFIG                 crawler configuration URI
//	NSCRAWLER_PLUGIN_PLACES          plugin directories
//	NSCRAWLER_MODE                   default crawl mode
//	NODE_NAME                        node whose pods are inspected
//	KUBECONFIG                       Kubernetes client configuration
//
// # Exit Codes
//
//	0  Success, including crawls with per-plugin failures
//	1  General error, or a batch stopped by a namespace switch failure
//	2  Context canceled or timeout
package cli
