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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Discovery failure causes, matched with errors.Is on a *DiscoveryError.
var (
	ErrMalformedManifest = errors.New("malformed plugin manifest")
	ErrUnknownModule     = errors.New("unknown plugin module")
	ErrNonConforming     = errors.New("plugin does not satisfy its category contract")
	ErrDuplicatePlugin   = errors.New("duplicate plugin name in category")
	ErrUnreadableSource  = errors.New("unreadable plugin source")
)

// DiscoveryError reports a plugin that could not be registered.
type DiscoveryError struct {
	Path     string
	Name     string
	Category Category
	Err      error
}

func (e *DiscoveryError) Error() string {
	var b strings.Builder
	b.WriteString("plugin")
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Category != "" {
		fmt.Fprintf(&b, " (%s)", e.Category)
	}
	fmt.Fprintf(&b, " at %s: %v", e.Path, e.Err)
	return b.String()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Discover enumerates the *.plugin manifests under sources and builds a
// snapshot of the plugins whose category is in filter.
//
// Sources are walked in the given order and each source in lexical order, so
// discovery order is stable. A source that does not exist is skipped. Every
// plugin that cannot be registered yields a *DiscoveryError; the errors are
// joined and returned together with the snapshot of all valid plugins.
func Discover(sources []string, filter CategoryFilter) (*Snapshot, error) {
	return DiscoverWith(&Services{}, sources, filter)
}

// DiscoverWith is Discover with the services passed to plugin factories.
func DiscoverWith(svc *Services, sources []string, filter CategoryFilter) (*Snapshot, error) {
	snap := &Snapshot{}
	seen := make(map[Category]map[string]string)
	var errs []error

	for _, src := range sources {
		err := filepath.WalkDir(src, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				if path == src && errors.Is(err, fs.ErrNotExist) {
					slog.Debug("plugin source does not exist", "source", src)
					return fs.SkipDir
				}
				errs = append(errs, &DiscoveryError{Path: path, Err: fmt.Errorf("%w: %w", ErrUnreadableSource, err)})
				if de != nil && de.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if de.IsDir() || filepath.Ext(path) != ManifestExt {
				return nil
			}

			d, derr := load(svc, path, filter, seen)
			if derr != nil {
				errs = append(errs, derr)
				return nil
			}
			if d != nil {
				snap.descriptors = append(snap.descriptors, d)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, &DiscoveryError{Path: src, Err: fmt.Errorf("%w: %w", ErrUnreadableSource, err)})
		}
	}

	if len(errs) > 0 {
		discoveryErrors.Add(float64(len(errs)))
	}

	slog.Debug("plugin discovery complete",
		"sources", sources,
		"plugins", snap.Len(),
		"errors", len(errs))

	return snap, errors.Join(errs...)
}

// load registers a single manifest. It returns nil, nil when the manifest's
// category is filtered out.
func load(svc *Services, path string, filter CategoryFilter, seen map[Category]map[string]string) (*Descriptor, *DiscoveryError) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DiscoveryError{Path: path, Err: fmt.Errorf("%w: %w", ErrUnreadableSource, err)}
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, &DiscoveryError{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedManifest, err)}
	}

	capability, ok := filter[m.Category]
	if !ok {
		return nil, nil
	}

	derr := func(cause error) *DiscoveryError {
		return &DiscoveryError{Path: path, Name: m.Name, Category: m.Category, Err: cause}
	}

	if first, dup := seen[m.Category][m.Name]; dup {
		return nil, derr(fmt.Errorf("%w: already declared by %s", ErrDuplicatePlugin, first))
	}

	factory, ok := lookupFactory(m.Module)
	if !ok {
		return nil, derr(fmt.Errorf("%w: %s", ErrUnknownModule, m.Module))
	}

	impl := factory(svc)
	if capability != nil {
		if err := capability(impl); err != nil {
			return nil, derr(fmt.Errorf("%w: %w", ErrNonConforming, err))
		}
	}

	d := &Descriptor{
		name:        m.Name,
		category:    m.Category,
		module:      m.Module,
		path:        path,
		version:     m.Version,
		description: m.Description,
		impl:        impl,
	}
	if m.Category.IsCrawler() {
		c, ok := impl.(Crawler)
		if !ok {
			return nil, derr(fmt.Errorf("%w: %w", ErrNonConforming, CrawlerCapability(impl)))
		}
		d.feature = c.Feature()
	}

	if seen[m.Category] == nil {
		seen[m.Category] = make(map[string]string)
	}
	seen[m.Category][m.Name] = path

	return d, nil
}
