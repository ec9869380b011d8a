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

// Package crawler runs a batch of crawls: every selected plugin of one
// audience against every target.
//
// A Runner asks the plugin.Manager for the plugins of its audience, names
// each container target through the runtime environment plugin, then fans
// out (plugin, target) pairs with a bounded errgroup. Each target produces
// one Frame whose records keep plugin selection order.
//
// Outcomes are sorted the way callers need them:
//
//   - A plugin that yields nothing is not applicable; logged at debug.
//   - A plugin error, including *plugin.CollectionFailedError, becomes a
//     Failure and the batch continues.
//   - namespace.ErrSwitch, a partial namespace switch, abandons that one
//     crawl. It is recorded as a Failure, the other pairs still run, and the
//     first one is reported in Result.Fatal.
//   - plugin.ErrRuntimeEnvironmentNotFound stops the batch and is reported in
//     Result.Fatal. Pairs that had not started are recorded as Failures
//     wrapping ErrSkipped.
package crawler
