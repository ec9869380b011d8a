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

import (
	"iter"
	"slices"
)

// Type identifies the category of a record's attributes.
type Type string

// String returns the string representation of the feature Type.
func (t Type) String() string {
	return string(t)
}

const (
	TypeLoad        Type = "load"
	TypeApplication Type = "application"
	TypeOS          Type = "os"
	TypeSystemD     Type = "systemd"
)

// Record is a single collected feature.
type Record struct {
	Key        string `json:"key" yaml:"key"`
	Attributes any    `json:"attributes" yaml:"attributes"`
	Type       Type   `json:"type" yaml:"type"`
}

// Of returns a sequence yielding the given records in order.
func Of(records ...Record) iter.Seq[Record] {
	return slices.Values(records)
}

// Empty returns a sequence that yields nothing.
func Empty() iter.Seq[Record] {
	return func(func(Record) bool) {}
}

// Collect drains seq into a slice. A nil sequence yields an empty slice.
func Collect(seq iter.Seq[Record]) []Record {
	if seq == nil {
		return []Record{}
	}
	out := make([]Record, 0)
	for r := range seq {
		out = append(out, r)
	}
	return out
}
