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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

const sample = `
crawlers:
  load:
  liberty:
    user: admin
    password: secret
    port: 9443
`

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"liberty", "load"}, c.Enabled())
	assert.NotNil(t, c.Overrides("load"))
	assert.Empty(t, c.Overrides("load"))
	assert.Equal(t, "admin", c.Overrides("liberty")["user"])
	assert.Equal(t, 9443, c.Overrides("liberty")["port"])
	assert.Nil(t, c.Overrides("missing"))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("crawlers: [1, 2"))
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidRequest))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		c, err := NewFileSource(filepath.Join(dir, "nope.yaml")).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, c.Enabled())
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(dir, "crawler.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

		c, err := NewFileSource(path).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"liberty", "load"}, c.Enabled())
	})

	t.Run("each load reads afresh", func(t *testing.T) {
		path := filepath.Join(dir, "changing.yaml")
		require.NoError(t, os.WriteFile(path, []byte("crawlers: {load: {}}"), 0o600))
		src := NewFileSource(path)

		c1, err := src.Load(context.Background())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("crawlers: {os: {}}"), 0o600))
		c2, err := src.Load(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"load"}, c1.Enabled())
		assert.Equal(t, []string{"os"}, c2.Enabled())
	})
}

func TestConfigMapSource(t *testing.T) {
	cs := fake.NewClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "crawler", Namespace: "monitoring"},
		Data:       map[string]string{ConfigMapKey: sample},
	}, &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "empty", Namespace: "monitoring"},
	})

	c, err := (&ConfigMapSource{Namespace: "monitoring", Name: "crawler", Client: cs}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", c.Overrides("liberty")["password"])

	_, err = (&ConfigMapSource{Namespace: "monitoring", Name: "empty", Client: cs}).Load(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeNotFound))

	_, err = (&ConfigMapSource{Namespace: "monitoring", Name: "absent", Client: cs}).Load(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeUnavailable))
}

func TestStatic_ReturnsCopy(t *testing.T) {
	s := &Static{Crawlers: map[string]map[string]any{"load": {"a": 1}}}

	c, err := s.Load(context.Background())
	require.NoError(t, err)
	c.Crawlers["load"]["a"] = 2

	assert.Equal(t, 1, s.Crawlers["load"]["a"])
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantFile string
		wantNS   string
		wantName string
		wantErr  bool
	}{
		{name: "empty uses default", uri: "", wantFile: "/etc/default.yaml"},
		{name: "file path", uri: "/tmp/c.yaml", wantFile: "/tmp/c.yaml"},
		{name: "configmap", uri: "cm://monitoring/crawler", wantNS: "monitoring", wantName: "crawler"},
		{name: "configmap missing name", uri: "cm://monitoring", wantErr: true},
		{name: "configmap extra segment", uri: "cm://a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.uri, "/etc/default.yaml")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			switch s := src.(type) {
			case *FileSource:
				assert.Equal(t, tt.wantFile, s.Path)
			case *ConfigMapSource:
				assert.Equal(t, tt.wantNS, s.Namespace)
				assert.Equal(t, tt.wantName, s.Name)
			default:
				t.Fatalf("unexpected source %T", src)
			}
		})
	}
}
