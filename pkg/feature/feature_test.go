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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCollect(t *testing.T) {
	r1 := Record{Key: "load", Attributes: Load{Shortterm: 1}, Type: TypeLoad}
	r2 := Record{Key: "os", Attributes: OSRelease{ID: "ubuntu"}, Type: TypeOS}

	assert.Equal(t, []Record{r1, r2}, Collect(Of(r1, r2)))
	assert.Empty(t, Collect(Empty()))
	assert.Empty(t, Collect(nil))
}

func TestOf_StopsEarly(t *testing.T) {
	seq := Of(Record{Key: "a"}, Record{Key: "b"}, Record{Key: "c"})

	var seen []string
	for r := range seq {
		seen = append(seen, r.Key)
		if r.Key == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestToReading(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 3, 3},
		{"int32", int32(4), int64(4)},
		{"uint32", uint32(5), uint64(5)},
		{"float", 1.5, 1.5},
		{"bool", true, true},
		{"string", "x", "x"},
		{"slice falls back to string", []string{"a"}, "[a]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToReading(tt.in).Any())
		})
	}
}

func TestReadings_MarshalAsScalars(t *testing.T) {
	r := Readings{
		"heap":    Int64(1024),
		"state":   Str("active"),
		"healthy": Bool(true),
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"heap":1024,"state":"active","healthy":true}`, string(b))

	y, err := yaml.Marshal(r)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(y, &back))
	assert.Equal(t, 1024, back["heap"])
	assert.Equal(t, "active", back["state"])
}

func TestReadings_Keys(t *testing.T) {
	r := Readings{"b": Int(1), "a": Int(2), "c": Int(3)}
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())
}

func TestReadings_FilterOut(t *testing.T) {
	r := Readings{
		"AllowedCPUs":       Str("0-3"),
		"LoadCredential":    Str("x"),
		"SetCredentialFile": Str("y"),
		"ActiveState":       Str("active"),
		"Id":                Str("kubelet.service"),
	}

	got := r.FilterOut([]string{"Allowed*", "*Credential*", "Id"})
	assert.Equal(t, []string{"ActiveState"}, got.Keys())
	// source untouched
	assert.Len(t, r, 5)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		key, pattern string
		want         bool
	}{
		{"abc", "abc", true},
		{"abc", "ab", false},
		{"abc", "a*", true},
		{"abc", "*c", true},
		{"abc", "*b*", true},
		{"aXbYc", "a*b*c", true},
		{"aXbY", "a*b*c", false},
		{"abc", "*", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.key, tt.pattern))
		})
	}
}
