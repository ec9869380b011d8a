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
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/NVIDIA/nscrawler/pkg/feature"
)

// Category is the kind of a plugin. The set of categories is closed.
type Category string

const (
	ContainerCrawler    Category = "container-crawler"
	VMCrawler           Category = "vm-crawler"
	HostCrawler         Category = "host-crawler"
	EnvironmentCategory Category = "environment"
)

// Categories lists every known category.
var Categories = []Category{ContainerCrawler, VMCrawler, HostCrawler, EnvironmentCategory}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	return slices.Contains(Categories, c)
}

// IsCrawler reports whether plugins of category c collect features.
func (c Category) IsCrawler() bool {
	return c == ContainerCrawler || c == VMCrawler || c == HostCrawler
}

// Crawler is implemented by every collection plugin.
//
// Crawl returns a lazy sequence of records for the target. An empty (or nil)
// sequence with a nil error means the plugin does not apply to the target.
// A target that should have answered but could not be reached is reported
// with a *CollectionFailedError.
type Crawler interface {
	// Feature returns the feature key the plugin provides. It must be pure.
	Feature() string
	Crawl(ctx context.Context, target string, args Args) (iter.Seq[feature.Record], error)
}

// Environment is implemented by runtime environment plugins, which describe
// how containers of a given runtime are named and grouped.
type Environment interface {
	EnvironmentName() string
	ContainerNamespace(ctx context.Context, containerID string, args Args) (string, error)
}

// Capability checks that a plugin instance satisfies a category contract.
type Capability func(impl any) error

// CrawlerCapability requires impl to implement Crawler.
func CrawlerCapability(impl any) error {
	if _, ok := impl.(Crawler); !ok {
		return fmt.Errorf("%T does not implement Crawler", impl)
	}
	return nil
}

// EnvironmentCapability requires impl to implement Environment.
func EnvironmentCapability(impl any) error {
	if _, ok := impl.(Environment); !ok {
		return fmt.Errorf("%T does not implement Environment", impl)
	}
	return nil
}

// CategoryFilter maps the categories to discover to the capability their
// plugins must satisfy. Plugins of other categories are ignored.
type CategoryFilter map[Category]Capability

// FilterFor returns a CategoryFilter for the given categories with their
// standard capability.
func FilterFor(categories ...Category) CategoryFilter {
	f := make(CategoryFilter, len(categories))
	for _, c := range categories {
		if c.IsCrawler() {
			f[c] = CrawlerCapability
		} else {
			f[c] = EnvironmentCapability
		}
	}
	return f
}
