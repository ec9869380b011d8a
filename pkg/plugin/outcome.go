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
	"errors"
	"fmt"
	"iter"

	"github.com/NVIDIA/nscrawler/pkg/feature"
)

// ErrCollectionFailed marks a target that should have answered a collection
// but could not be reached.
var ErrCollectionFailed = errors.New("collection failed")

// CollectionFailedError reports that a plugin observed the capability it
// collects from on the target and then failed to use it.
type CollectionFailedError struct {
	Target  string
	Feature string
	Err     error
}

func (e *CollectionFailedError) Error() string {
	return fmt.Sprintf("collecting %s from %s: %v", e.Feature, e.Target, e.Err)
}

// Unwrap exposes both ErrCollectionFailed and the cause to errors.Is.
func (e *CollectionFailedError) Unwrap() []error {
	return []error{ErrCollectionFailed, e.Err}
}

// CollectionFailed returns a *CollectionFailedError.
func CollectionFailed(target, feature string, err error) error {
	return &CollectionFailedError{Target: target, Feature: feature, Err: err}
}

// NotApplicable is the result of a plugin that does not apply to a target.
func NotApplicable() (iter.Seq[feature.Record], error) {
	return feature.Empty(), nil
}
