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
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/NVIDIA/nscrawler/pkg/config"
	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/header"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

type stubCrawler struct {
	feature string
	crawl   func(target string) (iter.Seq[feature.Record], error)
}

func (s *stubCrawler) Feature() string { return s.feature }

func (s *stubCrawler) Crawl(_ context.Context, target string, _ plugin.Args) (iter.Seq[feature.Record], error) {
	return s.crawl(target)
}

// nsCrawler joins the network namespace of pid 4242 for target "bad" and
// answers directly for any other target.
type nsCrawler struct {
	exec *namespace.Executor
}

func (c *nsCrawler) Feature() string { return "net" }

func (c *nsCrawler) Crawl(ctx context.Context, target string, _ plugin.Args) (iter.Seq[feature.Record], error) {
	if target != "bad" {
		return feature.Of(feature.Record{Key: target, Attributes: "net", Type: "net"}), nil
	}
	rec, err := namespace.Do(ctx, c.exec, 4242, namespace.NewSet(namespace.Network), func() (feature.Record, error) {
		return feature.Record{Key: target, Attributes: "net", Type: "net"}, nil
	})
	if err != nil {
		return nil, err
	}
	return feature.Of(rec), nil
}

type stubEnvironment struct{}

func (stubEnvironment) EnvironmentName() string { return "stub" }

func (stubEnvironment) ContainerNamespace(_ context.Context, id string, _ plugin.Args) (string, error) {
	if id == "unnamed" {
		return "", errors.New("no such container")
	}
	return "ns/" + id, nil
}

func init() {
	plugin.MustRegister("crawler.test.ok", func(*plugin.Services) any {
		return &stubCrawler{feature: "os", crawl: func(target string) (iter.Seq[feature.Record], error) {
			return feature.Of(feature.Record{Key: target, Attributes: "ok", Type: feature.TypeOS}), nil
		}}
	})
	plugin.MustRegister("crawler.test.empty", func(*plugin.Services) any {
		return &stubCrawler{feature: "package", crawl: func(string) (iter.Seq[feature.Record], error) {
			return plugin.NotApplicable()
		}}
	})
	plugin.MustRegister("crawler.test.nil", func(*plugin.Services) any {
		return &stubCrawler{feature: "config", crawl: func(string) (iter.Seq[feature.Record], error) {
			return nil, nil
		}}
	})
	plugin.MustRegister("crawler.test.fail", func(*plugin.Services) any {
		return &stubCrawler{feature: "file", crawl: func(target string) (iter.Seq[feature.Record], error) {
			return nil, plugin.CollectionFailed(target, "file", errors.New("connection refused"))
		}}
	})
	plugin.MustRegister("crawler.test.partial", func(*plugin.Services) any {
		return &stubCrawler{feature: "cpu", crawl: func(target string) (iter.Seq[feature.Record], error) {
			if target == "bad" {
				return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "partial switch", namespace.ErrSwitch)
			}
			return feature.Of(feature.Record{Key: target, Attributes: "cpu", Type: "cpu"}), nil
		}}
	})
	plugin.MustRegister("crawler.test.lost", func(*plugin.Services) any {
		return &stubCrawler{feature: "process", crawl: func(target string) (iter.Seq[feature.Record], error) {
			if target == "bad" {
				return nil, plugin.ErrRuntimeEnvironmentNotFound
			}
			return plugin.NotApplicable()
		}}
	})
	plugin.MustRegister("crawler.test.join", func(svc *plugin.Services) any {
		exec := svc.NamespaceExecutor()
		return &nsCrawler{exec: exec}
	})
	plugin.MustRegister("crawler.test.env", func(*plugin.Services) any {
		return stubEnvironment{}
	})
}

type manifest struct {
	name     string
	category plugin.Category
	module   string
}

func newManager(t *testing.T, env string, manifests ...manifest) *plugin.Manager {
	t.Helper()
	return newManagerWith(t, env, nil, manifests...)
}

func newManagerWith(t *testing.T, env string, svc *plugin.Services, manifests ...manifest) *plugin.Manager {
	t.Helper()
	dir := t.TempDir()
	for i, m := range manifests {
		content := fmt.Sprintf("name: %s\ncategory: %s\nmodule: %s\n", m.name, m.category, m.module)
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s%s", i, m.name, plugin.ManifestExt))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	opts := []plugin.ManagerOption{
		plugin.WithPlaces(dir),
		plugin.WithConfigSource(&config.Static{}),
		plugin.WithEnvironmentName(env),
	}
	if svc != nil {
		opts = append(opts, plugin.WithServices(svc))
	}
	return plugin.NewManager(opts...)
}

var (
	envStub  = manifest{"stub", plugin.EnvironmentCategory, "crawler.test.env"}
	okPlugin = manifest{"ok", plugin.ContainerCrawler, "crawler.test.ok"}
	empty    = manifest{"empty", plugin.ContainerCrawler, "crawler.test.empty"}
	nilSeq   = manifest{"nil", plugin.ContainerCrawler, "crawler.test.nil"}
	failing  = manifest{"fail", plugin.ContainerCrawler, "crawler.test.fail"}
	partial  = manifest{"partial", plugin.ContainerCrawler, "crawler.test.partial"}
	lost     = manifest{"lost", plugin.ContainerCrawler, "crawler.test.lost"}
	joining  = manifest{"join", plugin.ContainerCrawler, "crawler.test.join"}
)

func TestRun_Outcomes(t *testing.T) {
	m := newManager(t, "stub", envStub, okPlugin, empty, nilSeq, failing)
	r := &Runner{
		Manager:  m,
		Features: []string{"os", "package", "config", "file"},
		Version:  "v0.0.1",
	}

	res, err := r.Run(context.Background(), []string{"a", "unnamed"})
	require.NoError(t, err)
	require.NoError(t, res.Fatal)

	assert.Equal(t, header.KindCrawlResult, res.Kind)
	require.Len(t, res.Frames, 2)

	a, unnamed := res.Frames[0], res.Frames[1]
	assert.Equal(t, header.KindFrame, a.Kind)
	assert.Equal(t, "v0.0.1", a.Metadata[header.MetadataVersion])
	assert.Equal(t, "a", a.Target)
	assert.Equal(t, "ns/a", a.Namespace)
	assert.Equal(t, "unnamed", unnamed.Namespace)
	assert.NotEqual(t, a.ID, unnamed.ID)
	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err)

	require.Len(t, a.Entries, 1)
	assert.Equal(t, "ok", a.Entries[0].Plugin)
	assert.Equal(t, "a", a.Entries[0].Key)
	assert.Equal(t, 2, res.Records())

	require.Len(t, res.Failures, 2)
	for i, target := range []string{"a", "unnamed"} {
		f := res.Failures[i]
		assert.Equal(t, target, f.Target)
		assert.Equal(t, "fail", f.Plugin)
		assert.Equal(t, "file", f.Feature)
		assert.ErrorIs(t, f.Err(), plugin.ErrCollectionFailed)
		assert.Contains(t, f.Error, "connection refused")
	}
}

func TestRun_PartialSwitchAbandonsOnlyThatCrawl(t *testing.T) {
	m := newManager(t, "stub", envStub, partial, okPlugin)
	r := &Runner{Manager: m, Features: []string{"cpu", "os"}, Parallelism: 1}

	res, err := r.Run(context.Background(), []string{"bad", "good"})
	require.NoError(t, err)
	require.Error(t, res.Fatal)
	assert.ErrorIs(t, res.Fatal, namespace.ErrSwitch)
	assert.Contains(t, res.Fatal.Error(), "plugin partial on bad")

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad", res.Failures[0].Target)
	assert.Equal(t, "partial", res.Failures[0].Plugin)
	assert.ErrorIs(t, res.Failures[0].Err(), namespace.ErrSwitch)

	bad, good := res.Frames[0], res.Frames[1]
	require.Len(t, bad.Entries, 1)
	assert.Equal(t, "ok", bad.Entries[0].Plugin)
	require.Len(t, good.Entries, 2)
	assert.Equal(t, "partial", good.Entries[0].Plugin)
	assert.Equal(t, "ok", good.Entries[1].Plugin)
}

func TestRun_JoinFailureIsLocalToTarget(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("namespaces are Linux only")
	}
	root := t.TempDir()
	nsDir := filepath.Join(root, "4242", "ns")
	require.NoError(t, os.MkdirAll(nsDir, 0o755))
	// a regular file in place of the namespace handle makes setns fail on
	// the first kind
	require.NoError(t, os.WriteFile(filepath.Join(nsDir, "net"), nil, 0o600))

	svc := &plugin.Services{Executor: namespace.NewExecutor(namespace.WithProcRoot(root))}
	m := newManagerWith(t, "stub", svc, envStub, joining, okPlugin)
	r := &Runner{Manager: m, Features: []string{"net", "os"}, Parallelism: 1}

	res, err := r.Run(context.Background(), []string{"bad", "good"})
	require.NoError(t, err)
	require.NoError(t, res.Fatal)

	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, "bad", f.Target)
	assert.Equal(t, "join", f.Plugin)
	assert.ErrorIs(t, f.Err(), namespace.ErrJoin)
	assert.NotErrorIs(t, f.Err(), namespace.ErrSwitch)

	bad, good := res.Frames[0], res.Frames[1]
	require.Len(t, bad.Entries, 1)
	assert.Equal(t, "ok", bad.Entries[0].Plugin)
	require.Len(t, good.Entries, 2)
	assert.Equal(t, "join", good.Entries[0].Plugin)
	assert.Equal(t, "ok", good.Entries[1].Plugin)
}

func TestRun_StoppedBatchRecordsSkippedCrawls(t *testing.T) {
	m := newManager(t, "stub", envStub, lost, okPlugin)
	r := &Runner{Manager: m, Features: []string{"process", "os"}, Parallelism: 1}

	res, err := r.Run(context.Background(), []string{"bad", "good"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Fatal, plugin.ErrRuntimeEnvironmentNotFound)

	require.Len(t, res.Failures, 4)
	assert.ErrorIs(t, res.Failures[0].Err(), plugin.ErrRuntimeEnvironmentNotFound)
	want := [][2]string{{"bad", "ok"}, {"good", "lost"}, {"good", "ok"}}
	for i, w := range want {
		f := res.Failures[i+1]
		assert.Equal(t, w[0], f.Target)
		assert.Equal(t, w[1], f.Plugin)
		assert.ErrorIs(t, f.Err(), ErrSkipped)
	}
	assert.Zero(t, res.Records())
}

func TestRun_EnvironmentNotFoundIsFatal(t *testing.T) {
	m := newManager(t, "kubernetes", envStub, okPlugin)
	r := &Runner{Manager: m, Features: []string{"os"}}

	res, err := r.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Fatal, plugin.ErrRuntimeEnvironmentNotFound)
	require.Len(t, res.Frames, 1)
	assert.Empty(t, res.Frames[0].Entries)
}

func TestRun_Host(t *testing.T) {
	host := manifest{"host-ok", plugin.HostCrawler, "crawler.test.ok"}
	m := newManager(t, "missing", host, okPlugin)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &Runner{
		Manager:  m,
		Audience: plugin.AudienceHost,
		Features: []string{"os"},
		Version:  "v1.2.3",
		Clock:    clocktesting.NewFakePassiveClock(at),
	}

	res, err := r.Run(context.Background(), []string{"ignored"})
	require.NoError(t, err)
	require.NoError(t, res.Fatal)
	require.Len(t, res.Frames, 1)

	f := res.Frames[0]
	assert.Equal(t, HostTarget, f.Target)
	assert.Equal(t, HostTarget, f.Namespace)
	require.Len(t, f.Entries, 1)
	assert.Equal(t, "host-ok", f.Entries[0].Plugin)
	assert.Equal(t, "2025-06-01T12:00:00Z", f.Metadata[header.MetadataTimestamp])
	assert.Equal(t, "v1.2.3", f.Metadata[header.MetadataVersion])
	assert.Equal(t, f.Metadata, res.Metadata)
}

func TestRun_FramesKeepSelectionOrder(t *testing.T) {
	second := manifest{"ok-2", plugin.ContainerCrawler, "crawler.test.ok"}
	m := newManager(t, "stub", envStub, okPlugin, second)
	r := &Runner{Manager: m, Features: []string{"os"}, Parallelism: 8}

	targets := []string{"t1", "t2", "t3", "t4"}
	res, err := r.Run(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, res.Frames, len(targets))
	for i, f := range res.Frames {
		assert.Equal(t, targets[i], f.Target)
		require.Len(t, f.Entries, 2)
		assert.Equal(t, "ok", f.Entries[0].Plugin)
		assert.Equal(t, "ok-2", f.Entries[1].Plugin)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), []string{"a"})
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidRequest))

	m := newManager(t, "stub", envStub)
	_, err = (&Runner{Manager: m}).Run(context.Background(), nil)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidRequest))
}
