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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/nscrawler/pkg/config"
	"github.com/NVIDIA/nscrawler/pkg/defaults"
	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

// ErrRuntimeEnvironmentNotFound is returned when no environment plugin
// declares the requested environment name.
var ErrRuntimeEnvironmentNotFound = errors.New("runtime environment plugin not found")

// Audience is the kind of target a crawl plugin list serves.
type Audience string

const (
	AudienceContainer Audience = "container"
	AudienceVM        Audience = "vm"
	AudienceHost      Audience = "host"
)

// Audiences lists every audience.
var Audiences = []Audience{AudienceContainer, AudienceVM, AudienceHost}

// Category returns the plugin category crawled for the audience.
func (a Audience) Category() Category {
	switch a {
	case AudienceContainer:
		return ContainerCrawler
	case AudienceVM:
		return VMCrawler
	case AudienceHost:
		return HostCrawler
	default:
		return ""
	}
}

// ParseAudience parses an audience name.
func ParseAudience(s string) (Audience, error) {
	a := Audience(strings.ToLower(strings.TrimSpace(s)))
	if a.Category() == "" {
		return "", cerrors.New(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown audience %q, expected one of container, vm, host", s))
	}
	return a, nil
}

// cache holds the selected plugins of one audience. A nil list is Empty;
// any non-nil list, including an empty one, is Populated.
type cache struct {
	mu      sync.RWMutex
	entries []Selected
}

// Manager discovers, selects and caches plugins. It is safe for concurrent
// use. The zero value is not usable; create one with NewManager.
type Manager struct {
	places   []string
	source   config.Source
	options  Args
	services *Services

	caches map[Audience]*cache

	envMu   sync.RWMutex
	envName string
	env     Environment
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPlaces sets the directories searched for plugin manifests.
func WithPlaces(places ...string) ManagerOption {
	return func(m *Manager) {
		m.places = append([]string(nil), places...)
	}
}

// WithConfigSource sets the crawler configuration source.
func WithConfigSource(s config.Source) ManagerOption {
	return func(m *Manager) {
		m.source = s
	}
}

// WithOptions sets the global options applied during argument resolution.
func WithOptions(opts Args) ManagerOption {
	return func(m *Manager) {
		m.options = opts.Clone()
	}
}

// WithServices sets the collaborators passed to plugin factories.
func WithServices(s *Services) ManagerOption {
	return func(m *Manager) {
		m.services = s
	}
}

// WithEnvironmentName sets the runtime environment resolved by RuntimeEnvironment.
func WithEnvironmentName(name string) ManagerOption {
	return func(m *Manager) {
		m.envName = name
	}
}

// NewManager creates a Manager with empty caches. Without options it reads
// manifests from the default plugin places, uses an empty crawler
// configuration and resolves the default runtime environment.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		places:   append([]string(nil), defaults.PluginPlaces...),
		source:   &config.Static{},
		options:  Args{},
		services: &Services{},
		envName:  defaults.Environment,
		caches:   make(map[Audience]*cache, len(Audiences)),
	}
	for _, a := range Audiences {
		m.caches[a] = &cache{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Places returns the plugin places searched by the manager.
func (m *Manager) Places() []string {
	return append([]string(nil), m.places...)
}

// ContainerCrawlPlugins returns the cached container crawlers, populating the
// cache on first use. nil features selects the default access features.
func (m *Manager) ContainerCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Plugins(ctx, AudienceContainer, features)
}

// VMCrawlPlugins returns the cached VM crawlers, populating the cache on first use.
func (m *Manager) VMCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Plugins(ctx, AudienceVM, features)
}

// HostCrawlPlugins returns the cached host crawlers, populating the cache on first use.
func (m *Manager) HostCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Plugins(ctx, AudienceHost, features)
}

// ReloadContainerCrawlPlugins replaces the container crawler cache. nil
// features selects the default reload features.
func (m *Manager) ReloadContainerCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Reload(ctx, AudienceContainer, features)
}

// ReloadVMCrawlPlugins replaces the VM crawler cache.
func (m *Manager) ReloadVMCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Reload(ctx, AudienceVM, features)
}

// ReloadHostCrawlPlugins replaces the host crawler cache.
func (m *Manager) ReloadHostCrawlPlugins(ctx context.Context, features []string) ([]Selected, error) {
	return m.Reload(ctx, AudienceHost, features)
}

// Plugins returns the cached plugin list of an audience. An Empty cache is
// populated with the given features (default access features when nil); a
// Populated cache is returned as is, whatever the features. The returned
// slice is shared and must not be modified.
func (m *Manager) Plugins(ctx context.Context, a Audience, features []string) ([]Selected, error) {
	c, err := m.cacheFor(a)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()
	if entries != nil {
		return entries, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		return c.entries, nil
	}
	if features == nil {
		features = defaults.AccessFeatures
	}
	return m.fill(ctx, a, c, features)
}

// Reload rebuilds the plugin list of an audience and replaces the cache in a
// single exclusive update. nil features selects the default reload features.
// On error the previous cache is kept.
func (m *Manager) Reload(ctx context.Context, a Audience, features []string) ([]Selected, error) {
	c, err := m.cacheFor(a)
	if err != nil {
		return nil, err
	}
	if features == nil {
		features = defaults.ReloadFeatures
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return m.fill(ctx, a, c, features)
}

func (m *Manager) cacheFor(a Audience) (*cache, error) {
	c, ok := m.caches[a]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("unknown audience %q", a))
	}
	return c, nil
}

// fill discovers and selects the plugins of an audience into c. The caller
// holds c's write lock.
func (m *Manager) fill(ctx context.Context, a Audience, c *cache, features []string) ([]Selected, error) {
	cfg, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := DiscoverWith(m.services, m.places, FilterFor(a.Category()))
	if err != nil {
		logDiscoveryErrors(err)
	}

	entries := Select(snap.Descriptors(), cfg, features)
	c.entries = entries
	cacheReloads.WithLabelValues(string(a)).Inc()

	slog.Debug("plugin cache populated",
		"audience", a,
		"features", features,
		"selected", len(entries))

	return entries, nil
}

// selection reads the crawler configuration once and builds the selection
// configuration for one pass.
func (m *Manager) selection(ctx context.Context) (SelectionConfig, error) {
	lctx, cancel := context.WithTimeout(ctx, defaults.ConfigLoadTimeout)
	defer cancel()

	cfg, err := m.source.Load(lctx)
	if err != nil {
		return SelectionConfig{}, fmt.Errorf("failed to load crawler configuration: %w", err)
	}

	sc := SelectionConfig{
		Enabled:   sets.New(cfg.Enabled()...),
		Overrides: make(map[string]Args, len(cfg.Crawlers)),
		Options:   m.options.Clone(),
	}
	for name, args := range cfg.Crawlers {
		sc.Overrides[name] = Args(args).Clone()
	}
	return sc, nil
}

// RuntimeEnvironment returns the cached runtime environment plugin,
// resolving the configured environment name on first use.
func (m *Manager) RuntimeEnvironment(ctx context.Context) (Environment, error) {
	m.envMu.RLock()
	env := m.env
	m.envMu.RUnlock()
	if env != nil {
		return env, nil
	}

	m.envMu.Lock()
	defer m.envMu.Unlock()
	if m.env != nil {
		return m.env, nil
	}
	return m.resolveEnvironment(ctx, m.envName)
}

// ReloadRuntimeEnvironment resolves the environment plugin named name (the
// configured name when empty) and replaces the cached one.
func (m *Manager) ReloadRuntimeEnvironment(ctx context.Context, name string) (Environment, error) {
	m.envMu.Lock()
	defer m.envMu.Unlock()
	if name == "" {
		name = m.envName
	}
	env, err := m.resolveEnvironment(ctx, name)
	if err != nil {
		return nil, err
	}
	m.envName = name
	return env, nil
}

// resolveEnvironment finds the environment plugin declaring name. The
// caller holds envMu for writing.
func (m *Manager) resolveEnvironment(ctx context.Context, name string) (Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := DiscoverWith(m.services, m.places, FilterFor(EnvironmentCategory))
	if err != nil {
		logDiscoveryErrors(err)
	}

	var found []*Descriptor
	for _, d := range snap.Descriptors() {
		if env, ok := d.Environment(); ok && env.EnvironmentName() == name {
			found = append(found, d)
		}
	}

	if len(found) == 0 {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("no runtime environment plugin for environment %q in plugin places %s",
				name, strings.Join(m.places, ", ")),
			ErrRuntimeEnvironmentNotFound,
			map[string]any{"environment": name, "places": m.places})
	}
	if len(found) > 1 {
		slog.Warn("several plugins declare the same runtime environment, using the first",
			"environment", name,
			"plugin", found[0].Name(),
			"path", found[0].Path())
	}

	env, _ := found[0].Environment()
	m.env = env
	slog.Debug("runtime environment resolved", "environment", name, "plugin", found[0].Name())
	return env, nil
}

func logDiscoveryErrors(err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			slog.Warn("plugin skipped", "error", e)
		}
		return
	}
	slog.Warn("plugin skipped", "error", err)
}
