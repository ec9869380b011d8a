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

package feature

// Load holds the 1, 5 and 15 minute load averages.
type Load struct {
	Shortterm float64 `json:"shortterm" yaml:"shortterm"`
	Midterm   float64 `json:"midterm" yaml:"midterm"`
	Longterm  float64 `json:"longterm" yaml:"longterm"`
}

// OSRelease holds the identifying fields of an os-release file.
type OSRelease struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	VersionID  string `json:"version_id,omitempty" yaml:"version_id,omitempty"`
	PrettyName string `json:"pretty_name,omitempty" yaml:"pretty_name,omitempty"`
}
