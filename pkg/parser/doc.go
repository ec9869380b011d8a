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

// Package parser reads small line-oriented configuration files such as
// /etc/os-release or /proc/cmdline into lines or key/value maps.
//
// Paths may be resolved under a root directory, so a host crawler can read
// a target's files through the target's root filesystem mounted on the host:
//
//	p := parser.New(
//	    parser.WithRoot("/mnt/target"),
//	    parser.WithValueTrim(`"'`),
//	    parser.WithSkipEmptyValues(true),
//	)
//	release, err := p.Map("/etc/os-release") // reads /mnt/target/etc/os-release
//
// Defaults: newline separated entries, "=" between key and value, "#"
// comment lines skipped, files larger than 1MB or not valid UTF-8 rejected.
package parser
