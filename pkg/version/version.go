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

// Package version parses the dotted version strings used in plugin
// manifests: "1", "1.2", "1.2.3", with an optional "v" prefix and a
// "-suffix" or "+metadata" tail that is kept but not compared.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
)

// Version is a version number of one to three components.
type Version struct {
	Major int
	Minor int
	Patch int

	// Precision is the number of components given (1, 2, or 3).
	Precision int

	// Extras holds the suffix after '-' or '+', e.g. "-rc.1".
	Extras string
}

// String returns the version to its precision, without extras.
func (v Version) String() string {
	switch v.Precision {
	case 1:
		return strconv.Itoa(v.Major)
	case 2:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// Parse parses a version string.
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	var v Version
	main := s
	// a '-' or '+' starts the extras only after a digit, so "1.-2" stays invalid
	for i := 1; i < len(s); i++ {
		if (s[i] == '-' || s[i] == '+') && s[i-1] >= '0' && s[i-1] <= '9' {
			main, v.Extras = s[:i], s[i:]
			break
		}
	}

	parts := strings.Split(main, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}
	nums := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, "+-") {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		*nums[i] = n
	}
	v.Precision = len(parts)
	return v, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("version.MustParse(%q): %v", s, err))
	}
	return v
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than
// other, comparing only the components both specify.
func (v Version) Compare(other Version) int {
	precision := min(v.Precision, other.Precision)
	a := [3]int{v.Major, v.Minor, v.Patch}
	b := [3]int{other.Major, other.Minor, other.Patch}
	for i := 0; i < precision; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
