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

// Package systemd provides the systemd host crawler, which reports the unit
// properties of selected services over D-Bus.
//
// The units are taken from the "units" argument (a YAML list or a comma
// separated string) and default to containerd.service. Each unit yields one
// record keyed by the unit name whose attributes are the unit's properties
// as feature.Readings, minus noisy or sensitive keys.
//
// When the system bus cannot be reached the crawler reports nothing.
//
// Registered modules: systemd.host.
package systemd
