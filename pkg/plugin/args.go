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

package plugin

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Well-known argument and option names.
const (
	// ArgAvoidSetns asks a plugin to collect without switching namespaces.
	ArgAvoidSetns = "avoid_setns"
	// ArgRootDir is the host path where the target's root filesystem is mounted.
	ArgRootDir = "root_dir"
	// OptionMountpoint is the global option mapped to ArgRootDir.
	OptionMountpoint = "mountpoint"
)

// Args holds the resolved arguments passed to a plugin's Crawl.
type Args map[string]any

// Clone returns a shallow copy of a. The copy of a nil Args is empty, not nil.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	maps.Copy(out, a)
	return out
}

// String returns the value of key as a string.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// StringOr returns the value of key as a string, or def when unset.
func (a Args) StringOr(key, def string) string {
	if s, ok := a.String(key); ok {
		return s
	}
	return def
}

// Bool returns the value of key as a bool. String values are parsed the way
// configuration files spell them ("true", "yes", "1").
func (a Args) Bool(key string) bool {
	v, ok := a[key]
	if !ok {
		return false
	}
	return toBool(v)
}

// Int returns the value of key as an int.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	default:
		return 0, false
	}
}

// Strings returns the value of key as a list. A YAML sequence is taken as is
// and a string is split on commas; blank entries are dropped.
func (a Args) Strings(key string) []string {
	var raw []string
	switch v := a[key].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "on", "1":
			return true
		}
		return false
	case int:
		return b != 0
	default:
		return false
	}
}

// asArgs converts a nested option value (as decoded from YAML or built in
// code) to Args.
func asArgs(v any) (Args, bool) {
	switch m := v.(type) {
	case Args:
		return m, true
	case map[string]any:
		return Args(m), true
	case map[string]string:
		out := make(Args, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
