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

package namespace

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is a Linux namespace type, named as in /proc/<pid>/ns.
type Kind string

const (
	Cgroup  Kind = "cgroup"
	IPC     Kind = "ipc"
	Mount   Kind = "mnt"
	Network Kind = "net"
	PID     Kind = "pid"
	User    Kind = "user"
	UTS     Kind = "uts"
)

// AllAlias is the textual alias for All accepted by ParseSet.
const AllAlias = "all"

// Kinds lists every namespace kind known to the package.
var Kinds = []Kind{Cgroup, IPC, Mount, Network, PID, User, UTS}

// All is the set of kinds joined for broad OS and process sampling.
var All = NewSet(PID, UTS, IPC, Network, Mount)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known namespace kind.
func (k Kind) IsValid() bool {
	return slices.Contains(Kinds, k)
}

// Set is an ordered collection of distinct kinds. The order is the order in
// which namespaces are joined; they are left in reverse order.
type Set []Kind

// NewSet builds a Set, dropping duplicates while keeping first occurrence order.
func NewSet(kinds ...Kind) Set {
	s := make(Set, 0, len(kinds))
	for _, k := range kinds {
		if !slices.Contains(s, k) {
			s = append(s, k)
		}
	}
	return s
}

// ParseSet parses a comma separated list of kinds. "all" expands to All.
func ParseSet(s string) (Set, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == AllAlias {
			kinds = append(kinds, All...)
			continue
		}
		k := Kind(part)
		if !k.IsValid() {
			return nil, fmt.Errorf("unknown namespace kind %q", part)
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no namespace kinds in %q", s)
	}
	return NewSet(kinds...), nil
}

// Has reports whether k is in the set.
func (s Set) Has(k Kind) bool {
	return slices.Contains(s, k)
}

// String joins the kinds with commas.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
