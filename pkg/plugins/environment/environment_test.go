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

package environment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

var containers = inspect.Static{
	"abc": {ID: "abc", Name: "web", State: inspect.StateRunning, PID: 10, Labels: map[string]string{
		inspect.LabelPodNamespace:  "shop",
		inspect.LabelPodName:       "web-7d9f",
		inspect.LabelContainerName: "nginx",
	}},
	"def": {ID: "def", State: inspect.StateExited},
}

func TestCloudsight(t *testing.T) {
	env := &Cloudsight{Inspector: containers}
	assert.Equal(t, NameCloudsight, env.EnvironmentName())

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "named", id: "abc", want: "web"},
		{name: "unnamed stopped", id: "def", want: "def"},
		{name: "unknown", id: "zzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.ContainerNamespace(context.Background(), tt.id, plugin.Args{})
			if tt.wantErr {
				assert.ErrorIs(t, err, inspect.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKubernetes(t *testing.T) {
	env := &Kubernetes{Inspector: containers}
	assert.Equal(t, NameKubernetes, env.EnvironmentName())

	got, err := env.ContainerNamespace(context.Background(), "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "shop/web-7d9f/nginx", got)

	_, err = env.ContainerNamespace(context.Background(), "def", nil)
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeNotFound))
}

func TestDiscoveredAsEnvironments(t *testing.T) {
	dir := t.TempDir()
	for name, module := range map[string]string{"cloudsight": ModuleCloudsight, "kubernetes": ModuleKubernetes} {
		m := "name: " + name + "\ncategory: environment\nmodule: " + module + "\n"
		require.NoError(t, writeFile(dir, name+plugin.ManifestExt, m))
	}

	snap, err := plugin.DiscoverWith(&plugin.Services{Inspector: containers}, []string{dir},
		plugin.FilterFor(plugin.EnvironmentCategory))
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())

	d, ok := snap.Lookup(plugin.EnvironmentCategory, "kubernetes")
	require.True(t, ok)
	env, ok := d.Environment()
	require.True(t, ok)
	assert.Equal(t, NameKubernetes, env.EnvironmentName())
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
}
