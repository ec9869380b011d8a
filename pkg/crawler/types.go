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

package crawler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/header"
)

// HostTarget is the target name of host crawls.
const HostTarget = "host"

// ErrSkipped marks a crawl that never ran because its batch was stopped.
var ErrSkipped = errors.New("crawl skipped")

// Frame holds the records collected from one target.
type Frame struct {
	header.Header `json:",inline" yaml:",inline"`

	// ID uniquely identifies the frame.
	ID string `json:"id" yaml:"id"`

	// Target is the container ID, or HostTarget.
	Target string `json:"target" yaml:"target"`

	// Namespace is the name the runtime environment gives the target.
	Namespace string `json:"namespace" yaml:"namespace"`

	Entries []Entry `json:"entries" yaml:"entries"`
}

// Entry is a record tagged with the plugin that produced it.
type Entry struct {
	Plugin         string `json:"plugin" yaml:"plugin"`
	feature.Record `json:",inline" yaml:",inline"`
}

// Failure is a crawl that did not complete.
type Failure struct {
	Target  string `json:"target" yaml:"target"`
	Plugin  string `json:"plugin" yaml:"plugin"`
	Feature string `json:"feature,omitempty" yaml:"feature,omitempty"`
	Error   string `json:"error" yaml:"error"`

	err error
}

// Err returns the underlying error.
func (f Failure) Err() error {
	return f.err
}

// Result is the outcome of a crawl batch.
type Result struct {
	header.Header `json:",inline" yaml:",inline"`

	Frames   []*Frame  `json:"frames" yaml:"frames"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Fatal is set when the batch was stopped.
	Fatal error `json:"-" yaml:"-"`
}

// Records returns the number of records across all frames.
func (r *Result) Records() int {
	n := 0
	for _, f := range r.Frames {
		n += len(f.Entries)
	}
	return n
}

// Table renders one row per record followed by one row per failure.
func (r *Result) Table() ([]string, [][]string) {
	columns := []string{"NAMESPACE", "PLUGIN", "TYPE", "KEY", "ATTRIBUTES"}
	rows := make([][]string, 0, r.Records()+len(r.Failures))
	for _, f := range r.Frames {
		for _, e := range f.Entries {
			rows = append(rows, []string{f.Namespace, e.Plugin, e.Type.String(), e.Key, compact(e.Attributes)})
		}
	}
	for _, f := range r.Failures {
		rows = append(rows, []string{f.Target, f.Plugin, "failure", f.Feature, f.Error})
	}
	return columns, rows
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
