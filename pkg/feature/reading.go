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
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// AllowedScalar is a constraint (compile-time) for what we allow as readings.
type AllowedScalar interface {
	~int | ~int64 | ~uint64 | ~float64 | ~bool | ~string
}

// Reading is a *runtime* interface so values of mixed types fit in one map.
type Reading interface {
	isReading()
	Any() any
	String() string

	json.Marshaler
	yaml.Marshaler
}

// Scalar wraps an allowed scalar type.
type Scalar[T AllowedScalar] struct {
	V T
}

func (Scalar[T]) isReading() {}

func (s Scalar[T]) Any() any { return s.V }

// String returns the string representation of the underlying scalar value.
func (s Scalar[T]) String() string {
	return fmt.Sprintf("%v", s.V)
}

// MarshalJSON makes the JSON value be the underlying scalar (not an object wrapper).
func (s Scalar[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.V)
}

// MarshalYAML makes the YAML value be the underlying scalar (not an object wrapper).
func (s Scalar[T]) MarshalYAML() (any, error) {
	return s.V, nil
}

// Convenience constructors for each allowed scalar type.
func Int(v int) Reading         { return Scalar[int]{V: v} }
func Int64(v int64) Reading     { return Scalar[int64]{V: v} }
func Uint64(v uint64) Reading   { return Scalar[uint64]{V: v} }
func Float64(v float64) Reading { return Scalar[float64]{V: v} }
func Bool(v bool) Reading       { return Scalar[bool]{V: v} }
func Str(v string) Reading      { return Scalar[string]{V: v} }

// ToReading creates a Reading from any allowed scalar type.
// Other types are stored as their fmt representation.
func ToReading(v any) Reading {
	switch val := v.(type) {
	case int:
		return Int(val)
	case int32:
		return Int64(int64(val))
	case int64:
		return Int64(val)
	case uint32:
		return Uint64(uint64(val))
	case uint64:
		return Uint64(val)
	case float64:
		return Float64(val)
	case bool:
		return Bool(val)
	case string:
		return Str(val)
	default:
		return Str(fmt.Sprintf("%v", val))
	}
}

// Readings is a flat map of named scalar values.
type Readings map[string]Reading

// Keys returns the reading names in sorted order.
func (r Readings) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
