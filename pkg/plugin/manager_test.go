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
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nscrawler/pkg/config"
	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/feature"
)

type failingSource struct{}

func (failingSource) Load(context.Context) (*config.Config, error) {
	return nil, errors.New("config unavailable")
}

func newTestManager(t *testing.T, dir string, crawlers map[string]map[string]any, opts ...ManagerOption) *Manager {
	t.Helper()
	base := []ManagerOption{
		WithPlaces(dir),
		WithConfigSource(&config.Static{Crawlers: crawlers}),
	}
	return NewManager(append(base, opts...)...)
}

func TestManager_CacheIdempotence(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "load.plugin", "load", ContainerCrawler, "test.load")
	m := newTestManager(t, dir, map[string]map[string]any{"load": {"a": 1}})
	ctx := context.Background()

	first, err := m.ContainerCrawlPlugins(ctx, []string{"load"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	writeManifest(t, dir, "os.plugin", "os", ContainerCrawler, "test.os")

	second, err := m.ContainerCrawlPlugins(ctx, []string{"load", "os"})
	require.NoError(t, err)
	require.Len(t, second, 1, "populated cache is not refreshed by later access")
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, Args{"a": 1}, second[0].Args)
}

func TestManager_EmptyPopulatedCacheIsServed(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, nil)
	ctx := context.Background()

	got, err := m.HostCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	writeManifest(t, dir, "os.plugin", "os", HostCrawler, "test.os")

	got, err = m.HostCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got, "an empty populated cache is not refilled")

	got, err = m.ReloadHostCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"os"}, names(got))
}

func TestManager_DefaultFeatures(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.plugin", "package", VMCrawler, "test.package")
	writeManifest(t, dir, "b.plugin", "os", VMCrawler, "test.os")
	writeManifest(t, dir, "c.plugin", "load", VMCrawler, "test.load")
	m := newTestManager(t, dir, nil)
	ctx := context.Background()

	got, err := m.VMCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"package", "os"}, names(got))

	got, err = m.ReloadVMCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"os"}, names(got))

	got, err = m.ReloadVMCrawlPlugins(ctx, []string{"load"})
	require.NoError(t, err)
	assert.Equal(t, []string{"load"}, names(got))

	cached, err := m.VMCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, got, cached)
}

func TestManager_AudiencesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "c.plugin", "load", ContainerCrawler, "test.load")
	writeManifest(t, dir, "h.plugin", "load", HostCrawler, "test.load")
	m := newTestManager(t, dir, map[string]map[string]any{"load": nil})
	ctx := context.Background()

	c, err := m.ContainerCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	h, err := m.HostCrawlPlugins(ctx, nil)
	require.NoError(t, err)
	v, err := m.VMCrawlPlugins(ctx, nil)
	require.NoError(t, err)

	require.Len(t, c, 1)
	require.Len(t, h, 1)
	assert.Empty(t, v)
	assert.Equal(t, ContainerCrawler, c[0].Descriptor.Category())
	assert.Equal(t, HostCrawler, h[0].Descriptor.Category())
}

func TestManager_GlobalOptions(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "load.plugin", "load", ContainerCrawler, "test.load")
	m := newTestManager(t, dir, map[string]map[string]any{"load": {}},
		WithOptions(Args{"mountpoint": "/host", "avoid_setns": "false"}))

	got, err := m.ContainerCrawlPlugins(context.Background(), []string{"load"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Args{"root_dir": "/host"}, got[0].Args)

	records := feature.Collect(mustCrawl(t, got[0], "c1"))
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].Key)
}

func mustCrawl(t *testing.T, s Selected, target string) iter.Seq[feature.Record] {
	t.Helper()
	seq, err := s.Crawler().Crawl(context.Background(), target, s.Args)
	require.NoError(t, err)
	return seq
}

func TestManager_ConfigErrorKeepsCacheEmpty(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "load.plugin", "load", ContainerCrawler, "test.load")
	m := NewManager(WithPlaces(dir), WithConfigSource(failingSource{}))

	_, err := m.ContainerCrawlPlugins(context.Background(), []string{"load"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config unavailable")

	m.source = &config.Static{}
	got, err := m.ContainerCrawlPlugins(context.Background(), []string{"load"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestManager_ReloadIsAtomic(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.plugin", "load", ContainerCrawler, "test.load")
	writeManifest(t, dir, "b.plugin", "os", ContainerCrawler, "test.os")
	m := newTestManager(t, dir, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var got []Selected
			var err error
			if i%2 == 0 {
				got, err = m.Reload(ctx, AudienceContainer, []string{"load", "os"})
			} else {
				got, err = m.Plugins(ctx, AudienceContainer, []string{"load", "os"})
			}
			assert.NoError(t, err)
			assert.Equal(t, []string{"load", "os"}, names(got))
		}(i)
	}
	wg.Wait()
}

func TestManager_UnknownAudience(t *testing.T) {
	m := NewManager(WithPlaces(t.TempDir()))
	_, err := m.Plugins(context.Background(), Audience("gpu"), nil)
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidRequest))

	_, err = ParseAudience("gpu")
	assert.Error(t, err)
	a, err := ParseAudience(" Host ")
	require.NoError(t, err)
	assert.Equal(t, AudienceHost, a)
}

func TestManager_RuntimeEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "cloudsight.plugin", "cloudsight", EnvironmentCategory, "test.env.cloudsight")
	writeManifest(t, dir, "k8s.plugin", "kubernetes", EnvironmentCategory, "test.env.kubernetes")
	writeManifest(t, dir, "load.plugin", "load", ContainerCrawler, "test.load")
	m := NewManager(WithPlaces(dir))
	ctx := context.Background()

	env, err := m.RuntimeEnvironment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cloudsight", env.EnvironmentName())

	again, err := m.RuntimeEnvironment(ctx)
	require.NoError(t, err)
	assert.Same(t, env, again)

	env, err = m.ReloadRuntimeEnvironment(ctx, "kubernetes")
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", env.EnvironmentName())

	_, err = m.ReloadRuntimeEnvironment(ctx, "docker")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeEnvironmentNotFound)
	assert.Contains(t, err.Error(), `"docker"`)
	assert.Contains(t, err.Error(), dir)

	env, err = m.RuntimeEnvironment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", env.EnvironmentName(), "a failed reload keeps the cached environment")
}

func TestManager_RuntimeEnvironmentNotFound(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(WithPlaces(dir), WithEnvironmentName("cloudsight"))

	_, err := m.RuntimeEnvironment(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeEnvironmentNotFound)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeNotFound))
}

func TestOutcome(t *testing.T) {
	cause := errors.New("connection refused")
	err := CollectionFailed("c1", "liberty", cause)

	assert.ErrorIs(t, err, ErrCollectionFailed)
	assert.ErrorIs(t, err, cause)
	var cf *CollectionFailedError
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "c1", cf.Target)
	assert.Equal(t, "collecting liberty from c1: connection refused", err.Error())

	seq, err := NotApplicable()
	require.NoError(t, err)
	assert.Empty(t, feature.Collect(seq))
}
